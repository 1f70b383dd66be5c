package directory

import (
	"fmt"
	"sync"

	"github.com/example/rental-broker/internal/domain/rental"
)

// Memory is an in-process provider directory. Enumeration follows
// registration order.
type Memory struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]rental.Provider
}

var _ rental.Directory = (*Memory)(nil)

func NewMemory(providers ...rental.Provider) (*Memory, error) {
	m := &Memory{providers: make(map[string]rental.Provider)}
	for _, p := range providers {
		if err := m.Register(p); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Memory) Register(p rental.Provider) error {
	if p == nil {
		return fmt.Errorf("directory: register nil provider")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("directory: register provider with empty name")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.providers[name]; dup {
		return fmt.Errorf("directory: %w: %s", rental.ErrDuplicateProvider, name)
	}
	m.providers[name] = p
	m.order = append(m.order, name)
	return nil
}

func (m *Memory) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("directory: %w: %s", rental.ErrUnknownProvider, name)
	}
	delete(m.providers, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Lookup(name string) (rental.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[name]
	if !ok {
		return nil, fmt.Errorf("directory: %w: %s", rental.ErrUnknownProvider, name)
	}
	return p, nil
}

func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Memory) Providers() []rental.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]rental.Provider, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.providers[n])
	}
	return out
}
