package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/domain/rental"
)

// ManagerSession is the read-mostly view across all registered providers.
// Only registration changes the directory; reservations are never touched.
type ManagerSession struct {
	name string
	dir  rental.Directory
	log  *zap.Logger
}

func NewManagerSession(name string, dir rental.Directory, opts ...Option) *ManagerSession {
	o := buildOptions(opts)
	return &ManagerSession{
		name: name,
		dir:  dir,
		log:  o.log.With(zap.String("manager", name)),
	}
}

func (m *ManagerSession) Name() string { return m.name }

func (m *ManagerSession) RegisterProvider(p rental.Provider) error {
	if err := m.dir.Register(p); err != nil {
		return err
	}
	m.log.Info("provider registered", zap.String("provider", p.Name()))
	return nil
}

func (m *ManagerSession) UnregisterProvider(name string) error {
	if err := m.dir.Unregister(name); err != nil {
		return err
	}
	m.log.Info("provider unregistered", zap.String("provider", name))
	return nil
}

func (m *ManagerSession) ProviderNames() []string {
	return m.dir.Names()
}

func (m *ManagerSession) CarTypesOf(ctx context.Context, provider string) ([]rental.CarType, error) {
	p, err := m.dir.Lookup(provider)
	if err != nil {
		return nil, err
	}
	return p.CarTypes(ctx)
}

func (m *ManagerSession) NumberOfReservationsForType(ctx context.Context, provider, carType string) (int, error) {
	p, err := m.dir.Lookup(provider)
	if err != nil {
		return 0, err
	}
	return p.NumberOfReservationsForType(ctx, carType)
}

// NumberOfReservationsBy sums the renter's reservations over all providers.
func (m *ManagerSession) NumberOfReservationsBy(ctx context.Context, renter string) (int, error) {
	counts, err := fanOut(ctx, m.dir.Providers(), func(ctx context.Context, p rental.Provider) (int, error) {
		return p.NumberOfReservationsBy(ctx, renter)
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (m *ManagerSession) ReservationsBy(ctx context.Context, renter string) ([]rental.Reservation, error) {
	lists, err := fanOut(ctx, m.dir.Providers(), func(ctx context.Context, p rental.Provider) ([]rental.Reservation, error) {
		return p.ReservationsByRenter(ctx, renter)
	})
	if err != nil {
		return nil, err
	}
	var out []rental.Reservation
	for _, l := range lists {
		out = append(out, l...)
	}
	return out, nil
}

// ProviderTotal is a provider's current reservation count.
type ProviderTotal struct {
	Provider     string `json:"provider"`
	Reservations int    `json:"reservations"`
}

// Totals returns the reservation count of every provider in directory order.
func (m *ManagerSession) Totals(ctx context.Context) ([]ProviderTotal, error) {
	providers := m.dir.Providers()
	counts, err := fanOut(ctx, providers, func(ctx context.Context, p rental.Provider) (int, error) {
		n, err := p.TotalReservations(ctx)
		if err != nil {
			return 0, fmt.Errorf("total reservations at %s: %w", p.Name(), err)
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProviderTotal, len(providers))
	for i, p := range providers {
		out[i] = ProviderTotal{Provider: p.Name(), Reservations: counts[i]}
	}
	return out, nil
}

// MostPopularProvider returns the provider holding the most reservations.
// On a tie the first registered provider wins.
func (m *ManagerSession) MostPopularProvider(ctx context.Context) (string, error) {
	totals, err := m.Totals(ctx)
	if err != nil {
		return "", err
	}
	if len(totals) == 0 {
		return "", rental.ErrNoProviders
	}
	best := totals[0]
	for _, t := range totals[1:] {
		if t.Reservations > best.Reservations {
			best = t
		}
	}
	return best.Provider, nil
}
