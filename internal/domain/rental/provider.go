package rental

import "context"

// Provider is the capability a rental company exposes, whether it lives in
// this process or behind a transport.
type Provider interface {
	Name() string

	CarTypes(ctx context.Context) ([]CarType, error)
	CarType(ctx context.Context, name string) (CarType, error)
	IsAvailable(ctx context.Context, carType string, p Period) (bool, error)
	AvailableCarTypes(ctx context.Context, p Period) ([]CarType, error)

	CreateQuote(ctx context.Context, c Constraints, client string) (Quote, error)
	ConfirmQuote(ctx context.Context, q Quote) (Reservation, error)
	CancelReservation(ctx context.Context, r Reservation) error

	ReservationsByRenter(ctx context.Context, renter string) ([]Reservation, error)
	NumberOfReservationsForType(ctx context.Context, carType string) (int, error)
	NumberOfReservationsBy(ctx context.Context, renter string) (int, error)
	TotalReservations(ctx context.Context) (int, error)
}

// Directory maps provider names to providers. Providers and Names return
// entries in registration order.
type Directory interface {
	Lookup(name string) (Provider, error)
	Register(p Provider) error
	Unregister(name string) error
	Names() []string
	Providers() []Provider
}
