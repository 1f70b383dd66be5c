package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/example/rental-broker/internal/application/company"
	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/directory"
)

var t0 = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

func span(fromDay, nDays int) (time.Time, time.Time) {
	start := t0.Add(time.Duration(fromDay) * 24 * time.Hour)
	return start, start.Add(time.Duration(nDays) * 24 * time.Hour)
}

func constraints(carType string, fromDay, nDays int) rental.Constraints {
	from, to := span(fromDay, nDays)
	return rental.Constraints{Period: rental.NewPeriod(from, to), CarType: carType}
}

func newCompany(t *testing.T, name string, entries ...rental.FleetEntry) *company.Company {
	t.Helper()
	c, err := company.New(name, entries, company.WithSelector(rental.SelectFirst))
	if err != nil {
		t.Fatalf("company.New(%s): %v", name, err)
	}
	return c
}

func newDirectory(t *testing.T, providers ...rental.Provider) *directory.Memory {
	t.Helper()
	d, err := directory.NewMemory(providers...)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return d
}

func total(t *testing.T, p rental.Provider) int {
	t.Helper()
	n, err := p.TotalReservations(context.Background())
	if err != nil {
		t.Fatalf("TotalReservations: %v", err)
	}
	return n
}

// flaky wraps a provider and injects failures into confirm and cancel.
type flaky struct {
	rental.Provider

	confirmErr error
	cancelErr  error
	onConfirm  func()

	mu            sync.Mutex
	cancelCtxErrs []error
}

func (f *flaky) ConfirmQuote(ctx context.Context, q rental.Quote) (rental.Reservation, error) {
	if f.onConfirm != nil {
		f.onConfirm()
	}
	if f.confirmErr != nil {
		return rental.Reservation{}, f.confirmErr
	}
	return f.Provider.ConfirmQuote(ctx, q)
}

func (f *flaky) CancelReservation(ctx context.Context, r rental.Reservation) error {
	f.mu.Lock()
	f.cancelCtxErrs = append(f.cancelCtxErrs, ctx.Err())
	f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	return f.Provider.CancelReservation(ctx, r)
}
