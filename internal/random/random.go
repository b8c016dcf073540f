package random

import (
	"math/rand"
	"sync"
)

// Source is the random stream consumed by factories, selection strategies
// and reproduction operators.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Between returns a uniform value in [r.Start, r.End).
	Between(r Range) float64
	// Probability reports whether a Bernoulli trial with the given success
	// probability succeeded.
	Probability(p float64) bool
}

// Randomizer is the default Source backed by math/rand.
type Randomizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomizer(seed int64) *Randomizer {
	return &Randomizer{rng: rand.New(rand.NewSource(seed))}
}

func (r *Randomizer) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

func (r *Randomizer) Between(rg Range) float64 {
	return rg.Delta()*r.Float64() + rg.Start
}

func (r *Randomizer) Probability(p float64) bool {
	return r.Float64() < p
}

// Index draws an integer in [0, n) from src. It returns 0 for n <= 0.
func Index(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(src.Between(Span(float64(n))))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
