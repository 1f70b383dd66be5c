package rental

import (
	"math/rand/v2"
	"sync"
)

// Selector picks one car id out of a non-empty list of eligible ids.
// Callers must not rely on which one is chosen.
type Selector func(eligible []int) int

// SelectFirst returns the lowest-indexed eligible car. Deterministic, for tests.
func SelectFirst(eligible []int) int {
	return eligible[0]
}

// SelectRandom returns a Selector drawing uniformly from the eligible cars.
// A nil source uses the package-level generator.
func SelectRandom(src *rand.Rand) Selector {
	if src == nil {
		return func(eligible []int) int {
			return eligible[rand.IntN(len(eligible))]
		}
	}
	var mu sync.Mutex
	return func(eligible []int) int {
		mu.Lock()
		defer mu.Unlock()
		return eligible[src.IntN(len(eligible))]
	}
}

// SelectorByName resolves a configured strategy name.
func SelectorByName(name string) (Selector, bool) {
	switch name {
	case "", "random":
		return SelectRandom(nil), true
	case "first":
		return SelectFirst, true
	default:
		return nil, false
	}
}
