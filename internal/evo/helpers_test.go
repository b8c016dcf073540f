package evo

import (
	"testing"

	"hybrid/internal/random"
)

// numberPopulation returns a pre-seeded population holding 0..n-1 whose
// fitness is the value itself.
func numberPopulation(t *testing.T, n int) *Population[int] {
	t.Helper()
	values := make([]int, n)
	for i := range values {
		values[i] = i
	}
	p, err := NewPopulation(Options[int]{
		Individuals: values,
		Evaluator:   identityEvaluator(),
	})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	return p
}

func identityEvaluator() EvaluatorFunc[int] {
	return func(v int, _ *Population[int]) float64 { return float64(v) }
}

func values(individuals []*Individual[int]) []int {
	out := make([]int, len(individuals))
	for i, ind := range individuals {
		out[i] = ind.Value
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type countingFactory struct {
	size        int
	invocations int
}

func (f *countingFactory) Create(rng random.Source, _ *Population[int]) (int, bool, error) {
	f.invocations++
	return int(rng.Between(random.Span(100))), true, nil
}

func (f *countingFactory) InitialSize() int {
	return f.size
}
