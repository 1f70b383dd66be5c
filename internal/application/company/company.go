package company

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/metrics"
)

// Company is an in-process rental provider. A single mutex serializes every
// operation on its fleet; companies never lock each other.
type Company struct {
	name      string
	log       *zap.Logger
	selectCar rental.Selector
	newID     func() string

	mu    sync.Mutex
	fleet *fleet
}

var _ rental.Provider = (*Company)(nil)

type Option func(*Company)

// WithSelector sets the strategy used to pick a car on confirmation.
func WithSelector(s rental.Selector) Option {
	return func(c *Company) {
		if s != nil {
			c.selectCar = s
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Company) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a company owning Count cars for every fleet entry.
func New(name string, entries []rental.FleetEntry, opts ...Option) (*Company, error) {
	if name == "" {
		return nil, fmt.Errorf("company name is required")
	}
	f, err := newFleet(entries)
	if err != nil {
		return nil, fmt.Errorf("company %s: %w", name, err)
	}
	c := &Company{
		name:      name,
		log:       zap.NewNop(),
		selectCar: rental.SelectRandom(nil),
		newID:     uuid.NewString,
		fleet:     f,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("provider", name))
	c.log.Info("company starting up", zap.Int("cars", len(f.cars)), zap.Int("car_types", len(f.types)))
	return c, nil
}

func (c *Company) Name() string { return c.name }

func (c *Company) CarTypes(ctx context.Context) ([]rental.CarType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]rental.CarType, len(c.fleet.types))
	copy(out, c.fleet.types)
	return out, nil
}

func (c *Company) CarType(ctx context.Context, name string) (rental.CarType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.fleet.carType(name)
	if !ok {
		return rental.CarType{}, c.unknownType(name)
	}
	return t, nil
}

func (c *Company) IsAvailable(ctx context.Context, carType string, p rental.Period) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.fleet.carType(carType); !ok {
		return false, c.unknownType(carType)
	}
	return len(c.fleet.availableCars(carType, p)) > 0, nil
}

func (c *Company) AvailableCarTypes(ctx context.Context, p rental.Period) ([]rental.CarType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fleet.availableTypes(p), nil
}

// CreateQuote prices the constraints without holding any car. The quote
// can go stale before it is confirmed.
func (c *Company) CreateQuote(ctx context.Context, cons rental.Constraints, client string) (rental.Quote, error) {
	q, err := c.createQuote(cons, client)
	metrics.QuotesTotal.WithLabelValues(c.name, metrics.Outcome(err)).Inc()
	if err != nil {
		c.log.Debug("quote refused", zap.String("client", client), zap.String("car_type", cons.CarType), zap.Error(err))
		return rental.Quote{}, err
	}
	c.log.Debug("quote created", zap.String("client", client), zap.String("car_type", cons.CarType), zap.Float64("price", q.Price))
	return q, nil
}

func (c *Company) createQuote(cons rental.Constraints, client string) (rental.Quote, error) {
	if err := cons.Period.Validate(); err != nil {
		return rental.Quote{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.fleet.carType(cons.CarType)
	if !ok {
		return rental.Quote{}, c.unknownType(cons.CarType)
	}
	if len(c.fleet.availableCars(t.Name, cons.Period)) == 0 {
		return rental.Quote{}, fmt.Errorf("%s: %w: %s over %s", c.name, rental.ErrNotAvailable, t.Name, cons.Period)
	}
	return rental.Quote{
		Client:   client,
		Period:   cons.Period,
		CarType:  t.Name,
		Provider: c.name,
		Price:    rental.Price(t.PricePerDay, cons.Period),
	}, nil
}

// ConfirmQuote re-checks availability and books one eligible car.
func (c *Company) ConfirmQuote(ctx context.Context, q rental.Quote) (rental.Reservation, error) {
	res, err := c.confirmQuote(q)
	metrics.ConfirmationsTotal.WithLabelValues(c.name, metrics.Outcome(err)).Inc()
	if err != nil {
		c.log.Info("confirmation refused", zap.String("client", q.Client), zap.String("car_type", q.CarType), zap.Error(err))
		return rental.Reservation{}, err
	}
	c.log.Info("reservation created", zap.String("client", q.Client), zap.String("reservation", res.ID), zap.Int("car", res.CarID))
	return res, nil
}

func (c *Company) confirmQuote(q rental.Quote) (rental.Reservation, error) {
	if q.Provider != c.name {
		return rental.Reservation{}, fmt.Errorf("%s: %w: quote addressed to %q", c.name, rental.ErrUnknownProvider, q.Provider)
	}
	if err := q.Period.Validate(); err != nil {
		return rental.Reservation{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.fleet.carType(q.CarType); !ok {
		return rental.Reservation{}, c.unknownType(q.CarType)
	}
	eligible := c.fleet.availableCars(q.CarType, q.Period)
	if len(eligible) == 0 {
		return rental.Reservation{}, fmt.Errorf("%s: %w: all cars of type %s are taken over %s",
			c.name, rental.ErrNoCarAvailable, q.CarType, q.Period)
	}
	chosen, _ := c.fleet.car(pick(c.selectCar, eligible))

	res := rental.Reservation{ID: c.newID(), Quote: q, CarID: chosen.id}
	chosen.reservations = append(chosen.reservations, res)
	return res, nil
}

// CancelReservation detaches r from its car. Cancelling a reservation that
// is not attached fails, including a second cancel of the same one.
func (c *Company) CancelReservation(ctx context.Context, r rental.Reservation) error {
	err := c.cancel(r)
	metrics.CancellationsTotal.WithLabelValues(c.name, metrics.Outcome(err)).Inc()
	if err != nil {
		c.log.Warn("cancellation refused", zap.String("reservation", r.ID), zap.Error(err))
		return err
	}
	c.log.Info("reservation cancelled", zap.String("client", r.Renter()), zap.String("reservation", r.ID), zap.Int("car", r.CarID))
	return nil
}

func (c *Company) cancel(r rental.Reservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Quote.Provider == c.name {
		if car, ok := c.fleet.car(r.CarID); ok && car.remove(r.ID) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w: %s on car %d", c.name, rental.ErrReservationNotFound, r.ID, r.CarID)
}

func (c *Company) ReservationsByRenter(ctx context.Context, renter string) ([]rental.Reservation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reservationsBy(renter), nil
}

func (c *Company) reservationsBy(renter string) []rental.Reservation {
	var out []rental.Reservation
	for _, car := range c.fleet.cars {
		for _, r := range car.reservations {
			if r.Renter() == renter {
				out = append(out, r)
			}
		}
	}
	return out
}

// NumberOfReservationsForType counts reservations on cars of the named
// type; an unregistered name counts zero.
func (c *Company) NumberOfReservationsForType(ctx context.Context, carType string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, car := range c.fleet.cars {
		if car.carType.Name == carType {
			n += len(car.reservations)
		}
	}
	return n, nil
}

func (c *Company) NumberOfReservationsBy(ctx context.Context, renter string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reservationsBy(renter)), nil
}

func (c *Company) TotalReservations(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, car := range c.fleet.cars {
		n += len(car.reservations)
	}
	return n, nil
}

// pick applies the selector, falling back to the first eligible car when
// the selector strays outside the eligible set.
func pick(sel rental.Selector, eligible []int) int {
	id := sel(eligible)
	for _, e := range eligible {
		if e == id {
			return id
		}
	}
	return eligible[0]
}

func (c *Company) unknownType(name string) error {
	return fmt.Errorf("%s: %w: %q", c.name, rental.ErrUnknownCarType, name)
}
