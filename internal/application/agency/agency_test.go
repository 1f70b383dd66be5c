package agency

import (
	"context"
	"testing"
	"time"

	"github.com/example/rental-broker/internal/application/company"
	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/directory"
)

func newAgency(t *testing.T) *Agency {
	t.Helper()
	hertz, err := company.New("Hertz", []rental.FleetEntry{{Type: rental.CarType{Name: "Sedan", PricePerDay: 50}, Count: 1}})
	if err != nil {
		t.Fatalf("company.New: %v", err)
	}
	dir, err := directory.NewMemory(hertz)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return New(dir, nil)
}

func TestReservationSessionsAreKeyedByClient(t *testing.T) {
	a := newAgency(t)
	s1, err := a.StartReservationSession("ann")
	if err != nil {
		t.Fatalf("StartReservationSession: %v", err)
	}
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	c := rental.Constraints{Period: rental.NewPeriod(start, start.Add(24*time.Hour)), CarType: "Sedan"}
	if _, err := s1.CreateQuote(context.Background(), c, "Hertz"); err != nil {
		t.Fatalf("CreateQuote: %v", err)
	}

	s2, _ := a.StartReservationSession("ann")
	if s1 != s2 {
		t.Fatalf("second start for the same client returned a new session")
	}
	if len(s2.CurrentQuotes()) != 1 {
		t.Fatalf("pending quotes lost across starts")
	}
	other, _ := a.StartReservationSession("bob")
	if other == s1 {
		t.Fatalf("different clients share a session")
	}
	if got, ok := a.ReservationSession("ann"); !ok || got != s1 {
		t.Fatalf("ReservationSession(ann) = %v, %v", got, ok)
	}
	if a.ActiveSessions() != 2 {
		t.Fatalf("active = %d, want 2", a.ActiveSessions())
	}

	if !a.EndReservationSession("ann") {
		t.Fatalf("EndReservationSession(ann) = false")
	}
	if a.EndReservationSession("ann") {
		t.Fatalf("ending twice reported true")
	}
	s3, _ := a.StartReservationSession("ann")
	if s3 == s1 || len(s3.CurrentQuotes()) != 0 {
		t.Fatalf("restarted session kept old state")
	}
}

func TestManagerSessions(t *testing.T) {
	a := newAgency(t)
	m1, err := a.StartManagerSession("boss")
	if err != nil {
		t.Fatalf("StartManagerSession: %v", err)
	}
	m2, _ := a.StartManagerSession("boss")
	if m1 != m2 {
		t.Fatalf("manager session not reused")
	}
	if names := m1.ProviderNames(); len(names) != 1 || names[0] != "Hertz" {
		t.Fatalf("manager sees %v", names)
	}
	if !a.EndManagerSession("boss") || a.ActiveSessions() != 0 {
		t.Fatalf("manager session not ended")
	}
}

func TestEmptyNamesRejected(t *testing.T) {
	a := newAgency(t)
	if _, err := a.StartReservationSession(""); err == nil {
		t.Errorf("empty client accepted")
	}
	if _, err := a.StartManagerSession(""); err == nil {
		t.Errorf("empty manager accepted")
	}
}
