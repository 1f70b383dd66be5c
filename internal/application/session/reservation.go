package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/domain/rental"
	"github.com/example/rental-broker/internal/infrastructure/metrics"
)

// ReservationSession collects quotes for one client across providers and
// turns them into reservations in a single ConfirmQuotes call.
//
// A session belongs to one client. The mutex only keeps the pending set
// consistent; interleaving calls from the same client still has no defined
// outcome.
type ReservationSession struct {
	id     string
	client string
	dir    rental.Directory
	log    *zap.Logger

	mu     sync.Mutex
	quotes []rental.Quote
	seen   map[rental.QuoteKey]struct{}
}

func NewReservationSession(client string, dir rental.Directory, opts ...Option) *ReservationSession {
	o := buildOptions(opts)
	id := uuid.NewString()
	return &ReservationSession{
		id:     id,
		client: client,
		dir:    dir,
		log:    o.log.With(zap.String("session", id), zap.String("client", client)),
		seen:   make(map[rental.QuoteKey]struct{}),
	}
}

func (s *ReservationSession) ID() string     { return s.id }
func (s *ReservationSession) Client() string { return s.client }

// CreateQuote asks the named provider for a quote and adds it to the
// pending set. Requesting an identical quote again leaves the set as is.
func (s *ReservationSession) CreateQuote(ctx context.Context, c rental.Constraints, provider string) (rental.Quote, error) {
	p, err := s.dir.Lookup(provider)
	if err != nil {
		return rental.Quote{}, err
	}
	q, err := p.CreateQuote(ctx, c, s.client)
	if err != nil {
		return rental.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[q.Key()]; !dup {
		s.seen[q.Key()] = struct{}{}
		s.quotes = append(s.quotes, q)
	}
	return q, nil
}

// CurrentQuotes returns a copy of the pending quotes in request order.
func (s *ReservationSession) CurrentQuotes() []rental.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rental.Quote, len(s.quotes))
	copy(out, s.quotes)
	return out
}

type committed struct {
	provider    rental.Provider
	reservation rental.Reservation
}

// ConfirmQuotes confirms the pending quotes one provider call at a time in
// request order. When a confirmation fails, every reservation already made
// in this call is cancelled and the triggering error is returned. The
// pending set is empty afterwards whatever the outcome.
func (s *ReservationSession) ConfirmQuotes(ctx context.Context) (_ []rental.Reservation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	quotes := s.quotes
	defer func() {
		s.quotes = nil
		s.seen = make(map[rental.QuoteKey]struct{})
		metrics.ObserveSaga(started, err)
	}()

	done := make([]committed, 0, len(quotes))
	for i, q := range quotes {
		p, res, err := s.confirm(ctx, q)
		if err != nil {
			s.log.Warn("confirmation failed, rolling back",
				zap.Int("step", i+1), zap.Int("steps", len(quotes)),
				zap.String("provider", q.Provider), zap.Int("committed", len(done)), zap.Error(err))
			s.compensate(ctx, done)
			return nil, fmt.Errorf("confirm quote %d of %d at %s: %w", i+1, len(quotes), q.Provider, err)
		}
		done = append(done, committed{provider: p, reservation: res})
	}

	out := make([]rental.Reservation, len(done))
	for i, c := range done {
		out[i] = c.reservation
	}
	s.log.Info("quotes confirmed", zap.Int("reservations", len(out)))
	return out, nil
}

func (s *ReservationSession) confirm(ctx context.Context, q rental.Quote) (rental.Provider, rental.Reservation, error) {
	p, err := s.dir.Lookup(q.Provider)
	if err != nil {
		return nil, rental.Reservation{}, err
	}
	res, err := p.ConfirmQuote(ctx, q)
	if err != nil {
		return nil, rental.Reservation{}, err
	}
	return p, res, nil
}

// compensate cancels reservations in the order they were made. A failed
// cancel is logged and the walk continues. Cancellation of ctx does not
// stop compensation.
func (s *ReservationSession) compensate(ctx context.Context, done []committed) {
	ctx = context.WithoutCancel(ctx)
	for _, c := range done {
		err := c.provider.CancelReservation(ctx, c.reservation)
		metrics.CompensationsTotal.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			s.log.Error("compensation failed, reservation left in place",
				zap.String("provider", c.reservation.Provider()),
				zap.String("reservation", c.reservation.ID), zap.Int("car", c.reservation.CarID), zap.Error(err))
		}
	}
}

// AvailableCarTypes unions the available car types of every provider in
// the directory, in directory order.
func (s *ReservationSession) AvailableCarTypes(ctx context.Context, from, to time.Time) ([]rental.CarType, error) {
	perProvider, err := availablePerProvider(ctx, s.dir, rental.NewPeriod(from, to))
	if err != nil {
		return nil, err
	}
	var out []rental.CarType
	seen := make(map[rental.CarType]bool)
	for _, types := range perProvider {
		for _, t := range types {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// CheapestCarType returns the available car type with the lowest daily
// price. Ties go to the earlier provider, then the earlier type.
func (s *ReservationSession) CheapestCarType(ctx context.Context, from, to time.Time) (rental.CarType, error) {
	perProvider, err := availablePerProvider(ctx, s.dir, rental.NewPeriod(from, to))
	if err != nil {
		return rental.CarType{}, err
	}
	var (
		best  rental.CarType
		found bool
	)
	for _, types := range perProvider {
		for _, t := range types {
			if !found || t.PricePerDay < best.PricePerDay {
				best, found = t, true
			}
		}
	}
	if !found {
		return rental.CarType{}, fmt.Errorf("%w: no car type free over %s", rental.ErrNotAvailable, rental.NewPeriod(from, to))
	}
	return best, nil
}

func availablePerProvider(ctx context.Context, dir rental.Directory, p rental.Period) ([][]rental.CarType, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return fanOut(ctx, dir.Providers(), func(ctx context.Context, pr rental.Provider) ([]rental.CarType, error) {
		types, err := pr.AvailableCarTypes(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("available car types at %s: %w", pr.Name(), err)
		}
		return types, nil
	})
}
