package evo

import (
	"fmt"
	"math"

	"hybrid/internal/random"
)

const DefaultTournamentRate = 0.1

// Pool is the view of a population that selection strategies work on.
type Pool interface {
	Size() int
	Sort()
	IsBetter(i, j int) bool
}

// Selection picks the index of an individual to breed.
type Selection interface {
	Name() string
	Select(rng random.Source, pool Pool) (int, error)
}

// UniformSelection picks any individual with equal probability, ignoring
// fitness.
type UniformSelection struct{}

func (UniformSelection) Name() string {
	return "uniform"
}

func (UniformSelection) Select(rng random.Source, pool Pool) (int, error) {
	if err := checkPool(rng, pool); err != nil {
		return 0, err
	}
	return random.Index(rng, pool.Size()), nil
}

// TournamentSelection samples ceil(size*rate) individuals with repetition
// and returns the best of them.
type TournamentSelection struct {
	rate float64
}

// NewTournamentSelection clamps rate into (0, 1]; non-positive rates fall
// back to DefaultTournamentRate.
func NewTournamentSelection(rate float64) TournamentSelection {
	switch {
	case rate <= 0 || math.IsNaN(rate):
		rate = DefaultTournamentRate
	case rate > 1:
		rate = 1
	}
	return TournamentSelection{rate: rate}
}

func (TournamentSelection) Name() string {
	return "tournament"
}

func (s TournamentSelection) Rate() float64 {
	if s.rate == 0 {
		return DefaultTournamentRate
	}
	return s.rate
}

// Draws returns the number of contestants for a pool of the given size.
func (s TournamentSelection) Draws(size int) int {
	// 1e-9 absorbs products such as 10*0.3 = 3.0000000000000004.
	n := int(math.Ceil(float64(size)*s.Rate() - 1e-9))
	return max(n, 1)
}

func (s TournamentSelection) Select(rng random.Source, pool Pool) (int, error) {
	if err := checkPool(rng, pool); err != nil {
		return 0, err
	}
	size := pool.Size()
	best := -1
	for i := 0; i < s.Draws(size); i++ {
		chosen := random.Index(rng, size)
		if best < 0 || pool.IsBetter(chosen, best) {
			best = chosen
		}
	}
	return best, nil
}

// RankingSelection weights individuals by rank: after sorting, the best of n
// individuals has weight n-1 and the worst has weight 0.
type RankingSelection struct{}

func (RankingSelection) Name() string {
	return "ranking"
}

func (RankingSelection) Select(rng random.Source, pool Pool) (int, error) {
	if err := checkPool(rng, pool); err != nil {
		return 0, err
	}
	pool.Sort()

	size := pool.Size()
	point := rng.Between(random.Span(rankingSum(size)))
	cumulative := 0.0
	weight := size - 1
	for i := 0; i < size; i, weight = i+1, weight-1 {
		cumulative += float64(weight)
		if point < cumulative {
			return i, nil
		}
	}
	return 0, nil
}

func rankingSum(size int) float64 {
	return float64(size*(size-1)) / 2
}

func checkPool(rng random.Source, pool Pool) error {
	if rng == nil {
		return fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}
	if pool == nil || pool.Size() == 0 {
		return ErrEmptyPopulation
	}
	return nil
}
