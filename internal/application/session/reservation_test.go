package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/rental-broker/internal/domain/rental"
)

var (
	sedan   = rental.CarType{Name: "Sedan", Seats: 5, TrunkSpace: 3, PricePerDay: 50}
	compact = rental.CarType{Name: "Compact", Seats: 4, TrunkSpace: 1.5, PricePerDay: 40}
	van     = rental.CarType{Name: "Van", Seats: 8, TrunkSpace: 6, PricePerDay: 90}
)

func TestHertzScenario(t *testing.T) {
	ctx := context.Background()
	hertz := newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 2})
	dir := newDirectory(t, hertz)

	a := NewReservationSession("A", dir)
	q, err := a.CreateQuote(ctx, constraints("Sedan", 0, 3), "Hertz")
	if err != nil {
		t.Fatalf("A quote: %v", err)
	}
	if q.Price != 150 {
		t.Fatalf("price = %v, want 150", q.Price)
	}
	if _, err := a.ConfirmQuotes(ctx); err != nil {
		t.Fatalf("A confirm: %v", err)
	}
	if n := total(t, hertz); n != 1 {
		t.Fatalf("reservations = %d, want 1", n)
	}

	b := NewReservationSession("B", dir)
	from, to := span(1, 1)
	types, err := b.AvailableCarTypes(ctx, from, to)
	if err != nil {
		t.Fatalf("B available: %v", err)
	}
	if len(types) != 1 || types[0] != sedan {
		t.Fatalf("available = %v, want [Sedan]", types)
	}
	if _, err := b.CreateQuote(ctx, constraints("Sedan", 0, 3), "Hertz"); err != nil {
		t.Fatalf("B quote: %v", err)
	}
	// C quotes while one Sedan is still free, so its quote goes stale.
	c := NewReservationSession("C", dir)
	if _, err := c.CreateQuote(ctx, constraints("Sedan", 1, 2), "Hertz"); err != nil {
		t.Fatalf("C quote: %v", err)
	}
	if _, err := b.ConfirmQuotes(ctx); err != nil {
		t.Fatalf("B confirm: %v", err)
	}
	if n := total(t, hertz); n != 2 {
		t.Fatalf("reservations = %d, want 2", n)
	}

	if _, err := c.ConfirmQuotes(ctx); !errors.Is(err, rental.ErrNoCarAvailable) {
		t.Fatalf("C confirm: got %v, want ErrNoCarAvailable", err)
	}
	if _, err := c.CreateQuote(ctx, constraints("Sedan", 1, 2), "Hertz"); !errors.Is(err, rental.ErrNotAvailable) {
		t.Fatalf("C requote: got %v, want ErrNotAvailable", err)
	}
	if n := total(t, hertz); n != 2 {
		t.Fatalf("reservations = %d, want 2", n)
	}
}

func TestConfirmQuotesRollsBackOnOverlap(t *testing.T) {
	ctx := context.Background()
	hertz := newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1})
	dir := newDirectory(t, hertz)
	s := NewReservationSession("ann", dir)

	if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 3), "Hertz"); err != nil {
		t.Fatalf("quote 1: %v", err)
	}
	if _, err := s.CreateQuote(ctx, constraints("Sedan", 1, 3), "Hertz"); err != nil {
		t.Fatalf("quote 2: %v", err)
	}
	if got := len(s.CurrentQuotes()); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	rs, err := s.ConfirmQuotes(ctx)
	if !errors.Is(err, rental.ErrNoCarAvailable) {
		t.Fatalf("confirm: got %v, want ErrNoCarAvailable", err)
	}
	if rs != nil {
		t.Fatalf("reservations returned on failure: %v", rs)
	}
	if n := total(t, hertz); n != 0 {
		t.Fatalf("reservations after rollback = %d, want 0", n)
	}
	if got := len(s.CurrentQuotes()); got != 0 {
		t.Fatalf("pending after failed confirm = %d, want 0", got)
	}
	from, to := span(0, 4)
	if ok, _ := hertz.IsAvailable(ctx, "Sedan", rental.NewPeriod(from, to)); !ok {
		t.Fatalf("sedan not free after rollback")
	}
}

func TestConfirmQuotesAcrossProviders(t *testing.T) {
	ctx := context.Background()
	hertz := newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1})
	dockx := newCompany(t, "Dockx", rental.FleetEntry{Type: van, Count: 1})
	s := NewReservationSession("ann", newDirectory(t, hertz, dockx))

	if _, err := s.CreateQuote(ctx, constraints("Van", 0, 2), "Dockx"); err != nil {
		t.Fatalf("quote Dockx: %v", err)
	}
	if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 2), "Hertz"); err != nil {
		t.Fatalf("quote Hertz: %v", err)
	}
	rs, err := s.ConfirmQuotes(ctx)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(rs) != 2 || rs[0].Provider() != "Dockx" || rs[1].Provider() != "Hertz" {
		t.Fatalf("reservations = %v", rs)
	}
	if len(s.CurrentQuotes()) != 0 {
		t.Fatalf("pending not cleared after success")
	}
}

func TestCreateQuoteIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewReservationSession("ann", newDirectory(t, newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1})))
	for i := 0; i < 3; i++ {
		if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 1), "Hertz"); err != nil {
			t.Fatalf("quote: %v", err)
		}
	}
	if got := len(s.CurrentQuotes()); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
}

func TestCreateQuoteErrorsLeavePendingUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewReservationSession("ann", newDirectory(t, newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1})))
	if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 1), "Nope"); !errors.Is(err, rental.ErrUnknownProvider) {
		t.Fatalf("unknown provider: got %v", err)
	}
	if _, err := s.CreateQuote(ctx, constraints("Limo", 0, 1), "Hertz"); !errors.Is(err, rental.ErrUnknownCarType) {
		t.Fatalf("unknown type: got %v", err)
	}
	if len(s.CurrentQuotes()) != 0 {
		t.Fatalf("failed quotes were recorded")
	}
}

func TestCompensationFailureKeepsTriggeringError(t *testing.T) {
	ctx := context.Background()
	hertz := &flaky{
		Provider:  newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1}),
		cancelErr: fmt.Errorf("%w: connection reset", rental.ErrTransport),
	}
	dockx := &flaky{
		Provider:   newCompany(t, "Dockx", rental.FleetEntry{Type: van, Count: 1}),
		confirmErr: fmt.Errorf("%w: dial tcp: refused", rental.ErrTransport),
	}
	s := NewReservationSession("ann", newDirectory(t, hertz, dockx))
	if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 1), "Hertz"); err != nil {
		t.Fatalf("quote Hertz: %v", err)
	}
	if _, err := s.CreateQuote(ctx, constraints("Van", 0, 1), "Dockx"); err != nil {
		t.Fatalf("quote Dockx: %v", err)
	}

	_, err := s.ConfirmQuotes(ctx)
	if !errors.Is(err, rental.ErrTransport) || !errors.Is(err, dockx.confirmErr) {
		t.Fatalf("got %v, want the Dockx confirm error", err)
	}
	if len(hertz.cancelCtxErrs) != 1 {
		t.Fatalf("compensation attempts = %d, want 1", len(hertz.cancelCtxErrs))
	}
	if n := total(t, hertz); n != 1 {
		t.Fatalf("failed compensation should leave the reservation, got %d", n)
	}
	if len(s.CurrentQuotes()) != 0 {
		t.Fatalf("pending not cleared")
	}
}

func TestCompensationSurvivesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hertz := &flaky{Provider: newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1})}
	dockx := &flaky{
		Provider:   newCompany(t, "Dockx", rental.FleetEntry{Type: van, Count: 1}),
		confirmErr: context.Canceled,
		onConfirm:  cancel,
	}
	s := NewReservationSession("ann", newDirectory(t, hertz, dockx))
	if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 1), "Hertz"); err != nil {
		t.Fatalf("quote Hertz: %v", err)
	}
	if _, err := s.CreateQuote(ctx, constraints("Van", 0, 1), "Dockx"); err != nil {
		t.Fatalf("quote Dockx: %v", err)
	}

	if _, err := s.ConfirmQuotes(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if len(hertz.cancelCtxErrs) != 1 || hertz.cancelCtxErrs[0] != nil {
		t.Fatalf("compensation ran with ctx errors %v", hertz.cancelCtxErrs)
	}
	if n := total(t, hertz); n != 0 {
		t.Fatalf("reservation not compensated, total = %d", n)
	}
}

func TestRollbackAfterQuoteGoesStaleMidConfirm(t *testing.T) {
	ctx := context.Background()
	hertz := newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 2}, rental.FleetEntry{Type: compact, Count: 1})
	dir := newDirectory(t, hertz)
	s := NewReservationSession("ann", dir)

	for _, c := range []rental.Constraints{
		constraints("Sedan", 0, 1),
		constraints("Compact", 0, 1),
		constraints("Sedan", 2, 1),
	} {
		if _, err := s.CreateQuote(ctx, c, "Hertz"); err != nil {
			t.Fatalf("quote: %v", err)
		}
	}
	// Another client takes the only Compact before ann confirms.
	other := NewReservationSession("bob", dir)
	if _, err := other.CreateQuote(ctx, constraints("Compact", 0, 1), "Hertz"); err != nil {
		t.Fatalf("bob quote: %v", err)
	}
	if _, err := other.ConfirmQuotes(ctx); err != nil {
		t.Fatalf("bob confirm: %v", err)
	}

	if _, err := s.ConfirmQuotes(ctx); !errors.Is(err, rental.ErrNoCarAvailable) {
		t.Fatalf("got %v, want ErrNoCarAvailable", err)
	}
	if n, _ := hertz.NumberOfReservationsBy(ctx, "ann"); n != 0 {
		t.Fatalf("ann still holds %d reservations", n)
	}
	if n, _ := hertz.NumberOfReservationsBy(ctx, "bob"); n != 1 {
		t.Fatalf("bob lost his reservation")
	}
}

func TestCheapestCarTypeTiesGoToFirstProvider(t *testing.T) {
	ctx := context.Background()
	cheapA := rental.CarType{Name: "Mini", Seats: 2, PricePerDay: 30}
	cheapB := rental.CarType{Name: "Smart", Seats: 2, PricePerDay: 30}
	s := NewReservationSession("ann", newDirectory(t,
		newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1}, rental.FleetEntry{Type: cheapA, Count: 1}),
		newCompany(t, "Dockx", rental.FleetEntry{Type: cheapB, Count: 1}),
	))
	from, to := span(0, 1)
	best, err := s.CheapestCarType(ctx, from, to)
	if err != nil {
		t.Fatalf("CheapestCarType: %v", err)
	}
	if best != cheapA {
		t.Fatalf("cheapest = %v, want %v", best, cheapA)
	}
}

func TestCheapestCarTypeNothingFree(t *testing.T) {
	ctx := context.Background()
	hertz := newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1})
	s := NewReservationSession("ann", newDirectory(t, hertz))
	if _, err := s.CreateQuote(ctx, constraints("Sedan", 0, 2), "Hertz"); err != nil {
		t.Fatalf("quote: %v", err)
	}
	if _, err := s.ConfirmQuotes(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	from, to := span(1, 1)
	if _, err := s.CheapestCarType(ctx, from, to); !errors.Is(err, rental.ErrNotAvailable) {
		t.Fatalf("got %v, want ErrNotAvailable", err)
	}
	if _, err := s.AvailableCarTypes(ctx, to, from); !errors.Is(err, rental.ErrInvalidPeriod) {
		t.Fatalf("reversed range: got %v", err)
	}
}

func TestAvailableCarTypesUnionsProviders(t *testing.T) {
	ctx := context.Background()
	s := NewReservationSession("ann", newDirectory(t,
		newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1}, rental.FleetEntry{Type: compact, Count: 1}),
		newCompany(t, "Dockx", rental.FleetEntry{Type: sedan, Count: 1}, rental.FleetEntry{Type: van, Count: 1}),
	))
	from, to := span(0, 1)
	types, err := s.AvailableCarTypes(ctx, from, to)
	if err != nil {
		t.Fatalf("AvailableCarTypes: %v", err)
	}
	want := []rental.CarType{sedan, compact, van}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("types = %v, want %v", types, want)
		}
	}
}
