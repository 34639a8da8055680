package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source is the pseudo-random source every stochastic choice goes through.
// *rand.Rand satisfies it, so tests can pin outcomes with a seeded generator.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Locked wraps a seeded generator so one Source can be shared between
// concurrent requests.
type Locked struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a goroutine-safe Source seeded with seed.
func New(seed uint64) *Locked {
	return &Locked{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewFromClock seeds from the wall clock. Use New when outcomes must be reproducible.
func NewFromClock() *Locked {
	return New(uint64(time.Now().UnixNano()))
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.IntN(n)
}

// Pick returns a uniformly chosen element. items must not be empty.
func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Between returns a float uniformly drawn from [lo, hi).
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Weighted samples an index proportionally to weights. Non-positive totals fall
// back to the last index.
func Weighted(src Source, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return len(weights) - 1
	}
	r := src.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return len(weights) - 1
}
