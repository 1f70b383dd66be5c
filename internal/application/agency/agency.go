package agency

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/rental-broker/internal/application/session"
	"github.com/example/rental-broker/internal/domain/rental"
)

// Agency hands out sessions over an injected provider directory. Sessions
// are keyed by client (or manager) name: starting a session for a name that
// already has one returns the existing session.
type Agency struct {
	dir rental.Directory
	log *zap.Logger

	mu           sync.Mutex
	reservations map[string]*session.ReservationSession
	managers     map[string]*session.ManagerSession
}

func New(dir rental.Directory, log *zap.Logger) *Agency {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agency{
		dir:          dir,
		log:          log,
		reservations: make(map[string]*session.ReservationSession),
		managers:     make(map[string]*session.ManagerSession),
	}
}

func (a *Agency) Directory() rental.Directory { return a.dir }

func (a *Agency) StartReservationSession(client string) (*session.ReservationSession, error) {
	if client == "" {
		return nil, fmt.Errorf("agency: client name is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.reservations[client]; ok {
		return s, nil
	}
	s := session.NewReservationSession(client, a.dir, session.WithLogger(a.log))
	a.reservations[client] = s
	a.log.Debug("reservation session started", zap.String("client", client), zap.String("session", s.ID()))
	return s, nil
}

// ReservationSession returns the active session of client, if any.
func (a *Agency) ReservationSession(client string) (*session.ReservationSession, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.reservations[client]
	return s, ok
}

func (a *Agency) StartManagerSession(name string) (*session.ManagerSession, error) {
	if name == "" {
		return nil, fmt.Errorf("agency: manager name is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if m, ok := a.managers[name]; ok {
		return m, nil
	}
	m := session.NewManagerSession(name, a.dir, session.WithLogger(a.log))
	a.managers[name] = m
	a.log.Debug("manager session started", zap.String("manager", name))
	return m, nil
}

// EndReservationSession drops the client's session and its pending quotes.
func (a *Agency) EndReservationSession(client string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.reservations[client]
	delete(a.reservations, client)
	return ok
}

func (a *Agency) EndManagerSession(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.managers[name]
	delete(a.managers, name)
	return ok
}

// ActiveSessions returns the number of open reservation and manager sessions.
func (a *Agency) ActiveSessions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.reservations) + len(a.managers)
}
