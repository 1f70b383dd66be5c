package company

import (
	"fmt"

	"github.com/example/rental-broker/internal/domain/rental"
)

type car struct {
	id           int
	carType      rental.CarType
	reservations []rental.Reservation
}

// isAvailable reports whether no reservation on the car overlaps p.
func (c *car) isAvailable(p rental.Period) bool {
	for _, r := range c.reservations {
		if r.Quote.Period.Overlaps(p) {
			return false
		}
	}
	return true
}

func (c *car) remove(id string) bool {
	for i, r := range c.reservations {
		if r.ID == id {
			c.reservations = append(c.reservations[:i], c.reservations[i+1:]...)
			return true
		}
	}
	return false
}

// fleet is the in-memory car list of one company. It is not safe for
// concurrent use; Company guards it.
type fleet struct {
	cars   []*car
	types  []rental.CarType
	byName map[string]rental.CarType
}

// newFleet builds cars from ingested entries, numbering them from 0 in
// entry order.
func newFleet(entries []rental.FleetEntry) (*fleet, error) {
	f := &fleet{byName: make(map[string]rental.CarType)}
	nextID := 0
	for _, e := range entries {
		if e.Type.Name == "" {
			return nil, fmt.Errorf("fleet entry without car type name")
		}
		if e.Count < 0 {
			return nil, fmt.Errorf("car type %q: negative car count %d", e.Type.Name, e.Count)
		}
		if e.Type.PricePerDay < 0 {
			return nil, fmt.Errorf("car type %q: negative daily price", e.Type.Name)
		}
		if existing, ok := f.byName[e.Type.Name]; ok {
			if existing != e.Type {
				return nil, fmt.Errorf("car type %q defined twice with different attributes", e.Type.Name)
			}
		} else {
			f.byName[e.Type.Name] = e.Type
			f.types = append(f.types, e.Type)
		}
		for i := 0; i < e.Count; i++ {
			f.cars = append(f.cars, &car{id: nextID, carType: e.Type})
			nextID++
		}
	}
	return f, nil
}

func (f *fleet) carType(name string) (rental.CarType, bool) {
	t, ok := f.byName[name]
	return t, ok
}

func (f *fleet) car(id int) (*car, bool) {
	for _, c := range f.cars {
		if c.id == id {
			return c, true
		}
	}
	return nil, false
}

// availableCars returns the ids of cars of the named type free over p.
func (f *fleet) availableCars(carType string, p rental.Period) []int {
	var ids []int
	for _, c := range f.cars {
		if c.carType.Name == carType && c.isAvailable(p) {
			ids = append(ids, c.id)
		}
	}
	return ids
}

// availableTypes returns, in definition order, every type with at least
// one car free over p.
func (f *fleet) availableTypes(p rental.Period) []rental.CarType {
	free := make(map[string]bool, len(f.types))
	for _, c := range f.cars {
		if !free[c.carType.Name] && c.isAvailable(p) {
			free[c.carType.Name] = true
		}
	}
	out := make([]rental.CarType, 0, len(free))
	for _, t := range f.types {
		if free[t.Name] {
			out = append(out, t)
		}
	}
	return out
}
