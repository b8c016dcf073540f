package evo

import (
	"math"

	"hybrid/internal/random"
)

const (
	DefaultCrossoverProbability = 0.01
	DefaultMutationProbability  = 0.0

	minCrossoverProbability = 0.01
)

// Recombiner combines two parents into a child. The bool result is false
// when no child was produced.
type Recombiner[T any] interface {
	Recombine(rng random.Source, mother, father T, p *Population[T]) (T, bool, error)
}

type RecombinerFunc[T any] func(rng random.Source, mother, father T, p *Population[T]) (T, bool, error)

func (f RecombinerFunc[T]) Recombine(rng random.Source, mother, father T, p *Population[T]) (T, bool, error) {
	return f(rng, mother, father, p)
}

// Mutator derives a mutated value from value. The bool result is false when
// nothing was mutated.
type Mutator[T any] interface {
	Mutate(rng random.Source, value T, p *Population[T]) (T, bool, error)
}

type MutatorFunc[T any] func(rng random.Source, value T, p *Population[T]) (T, bool, error)

func (f MutatorFunc[T]) Mutate(rng random.Source, value T, p *Population[T]) (T, bool, error) {
	return f(rng, value, p)
}

// CrossoverStrategy is what the engine drives for recombination.
type CrossoverStrategy[T any] interface {
	Probability() float64
	Execute(rng random.Source, mother, father T, p *Population[T]) (T, bool, error)
}

// MutationStrategy is what the engine drives for mutation.
type MutationStrategy[T any] interface {
	Probability() float64
	Execute(rng random.Source, value T, p *Population[T]) (T, bool, error)
}

// Crossover pairs a probability, clamped to [0.01, 1], with a Recombiner.
// Execute only calls the Recombiner when the probability roll succeeds.
// Without a Recombiner it never produces a child.
type Crossover[T any] struct {
	probability float64
	recombiner  Recombiner[T]
}

func NewCrossover[T any](probability float64, r Recombiner[T]) *Crossover[T] {
	return &Crossover[T]{
		probability: clampProbability(probability, minCrossoverProbability),
		recombiner:  r,
	}
}

func (c *Crossover[T]) Probability() float64 {
	return c.probability
}

func (c *Crossover[T]) Execute(rng random.Source, mother, father T, p *Population[T]) (T, bool, error) {
	if c.recombiner == nil || !rng.Probability(c.probability) {
		var zero T
		return zero, false, nil
	}
	return c.recombiner.Recombine(rng, mother, father, p)
}

// Mutation pairs a probability, clamped to [0, 1], with a Mutator.
type Mutation[T any] struct {
	probability float64
	mutator     Mutator[T]
}

func NewMutation[T any](probability float64, m Mutator[T]) *Mutation[T] {
	return &Mutation[T]{
		probability: clampProbability(probability, 0),
		mutator:     m,
	}
}

func (m *Mutation[T]) Probability() float64 {
	return m.probability
}

func (m *Mutation[T]) Execute(rng random.Source, value T, p *Population[T]) (T, bool, error) {
	if m.mutator == nil || !rng.Probability(m.probability) {
		var zero T
		return zero, false, nil
	}
	return m.mutator.Mutate(rng, value, p)
}

func clampProbability(p, lower float64) float64 {
	if math.IsNaN(p) {
		return lower
	}
	return min(max(p, lower), 1)
}
