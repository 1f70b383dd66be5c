package session

import (
	"context"
	"errors"
	"testing"

	"github.com/example/rental-broker/internal/domain/rental"
)

func book(t *testing.T, dir rental.Directory, client, provider string, c rental.Constraints) {
	t.Helper()
	s := NewReservationSession(client, dir)
	if _, err := s.CreateQuote(context.Background(), c, provider); err != nil {
		t.Fatalf("%s quote at %s: %v", client, provider, err)
	}
	if _, err := s.ConfirmQuotes(context.Background()); err != nil {
		t.Fatalf("%s confirm at %s: %v", client, provider, err)
	}
}

func TestMostPopularProvider(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t,
		newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 3}),
		newCompany(t, "Dockx", rental.FleetEntry{Type: sedan, Count: 3}),
	)
	m := NewManagerSession("boss", dir)

	// Empty counts tie, so the first registered provider wins.
	if got, err := m.MostPopularProvider(ctx); err != nil || got != "Hertz" {
		t.Fatalf("empty tie = %q, %v; want Hertz", got, err)
	}

	book(t, dir, "ann", "Dockx", constraints("Sedan", 0, 1))
	if got, _ := m.MostPopularProvider(ctx); got != "Dockx" {
		t.Fatalf("most popular = %q, want Dockx", got)
	}

	book(t, dir, "bob", "Hertz", constraints("Sedan", 0, 1))
	if got, _ := m.MostPopularProvider(ctx); got != "Hertz" {
		t.Fatalf("1-1 tie = %q, want Hertz", got)
	}

	totals, err := m.Totals(ctx)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if len(totals) != 2 || totals[0] != (ProviderTotal{"Hertz", 1}) || totals[1] != (ProviderTotal{"Dockx", 1}) {
		t.Fatalf("totals = %v", totals)
	}
}

func TestMostPopularProviderEmptyDirectory(t *testing.T) {
	m := NewManagerSession("boss", newDirectory(t))
	if _, err := m.MostPopularProvider(context.Background()); !errors.Is(err, rental.ErrNoProviders) {
		t.Fatalf("got %v, want ErrNoProviders", err)
	}
}

func TestManagerCounts(t *testing.T) {
	ctx := context.Background()
	dir := newDirectory(t,
		newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 2}, rental.FleetEntry{Type: van, Count: 1}),
		newCompany(t, "Dockx", rental.FleetEntry{Type: sedan, Count: 1}),
	)
	m := NewManagerSession("boss", dir)

	book(t, dir, "ann", "Hertz", constraints("Sedan", 0, 1))
	book(t, dir, "ann", "Hertz", constraints("Van", 0, 1))
	book(t, dir, "ann", "Dockx", constraints("Sedan", 0, 1))
	book(t, dir, "bob", "Hertz", constraints("Sedan", 0, 1))

	if n, err := m.NumberOfReservationsForType(ctx, "Hertz", "Sedan"); err != nil || n != 2 {
		t.Errorf("Hertz Sedan = %d, %v; want 2", n, err)
	}
	if n, err := m.NumberOfReservationsForType(ctx, "Hertz", "Limo"); err != nil || n != 0 {
		t.Errorf("unknown type = %d, %v; want 0", n, err)
	}
	if _, err := m.NumberOfReservationsForType(ctx, "Avis", "Sedan"); !errors.Is(err, rental.ErrUnknownProvider) {
		t.Errorf("unknown provider: got %v", err)
	}
	if n, err := m.NumberOfReservationsBy(ctx, "ann"); err != nil || n != 3 {
		t.Errorf("ann = %d, %v; want 3", n, err)
	}
	rs, err := m.ReservationsBy(ctx, "ann")
	if err != nil {
		t.Fatalf("ReservationsBy: %v", err)
	}
	if len(rs) != 3 || rs[0].Provider() != "Hertz" || rs[2].Provider() != "Dockx" {
		t.Errorf("ann's reservations = %v", rs)
	}
	types, err := m.CarTypesOf(ctx, "Hertz")
	if err != nil || len(types) != 2 {
		t.Errorf("CarTypesOf = %v, %v", types, err)
	}
}

func TestManagerRegistration(t *testing.T) {
	dir := newDirectory(t, newCompany(t, "Hertz", rental.FleetEntry{Type: sedan, Count: 1}))
	m := NewManagerSession("boss", dir)

	if err := m.RegisterProvider(newCompany(t, "Dockx", rental.FleetEntry{Type: van, Count: 1})); err != nil {
		t.Fatalf("RegisterProvider: %v", err)
	}
	if err := m.RegisterProvider(newCompany(t, "Dockx", rental.FleetEntry{Type: van, Count: 1})); !errors.Is(err, rental.ErrDuplicateProvider) {
		t.Fatalf("duplicate: got %v", err)
	}
	if names := m.ProviderNames(); len(names) != 2 || names[1] != "Dockx" {
		t.Fatalf("names = %v", names)
	}
	if err := m.UnregisterProvider("Hertz"); err != nil {
		t.Fatalf("UnregisterProvider: %v", err)
	}
	if err := m.UnregisterProvider("Hertz"); !errors.Is(err, rental.ErrUnknownProvider) {
		t.Fatalf("second unregister: got %v", err)
	}
	if names := m.ProviderNames(); len(names) != 1 || names[0] != "Dockx" {
		t.Fatalf("names = %v", names)
	}
}
