package evo

import (
	"hybrid/internal/random"
)

// Factory produces random individuals for the first generation. The bool
// result is false when no individual was produced on this call.
type Factory[T any] interface {
	Create(rng random.Source, p *Population[T]) (T, bool, error)
}

// InitialSizer is implemented by factories that declare how many
// individuals make up an initial generation.
type InitialSizer interface {
	InitialSize() int
}

type FactoryFunc[T any] func(rng random.Source, p *Population[T]) (T, bool, error)

func (f FactoryFunc[T]) Create(rng random.Source, p *Population[T]) (T, bool, error) {
	return f(rng, p)
}

type nullFactory[T any] struct{}

func (nullFactory[T]) Create(random.Source, *Population[T]) (T, bool, error) {
	var zero T
	return zero, false, nil
}

// FitnessEvaluator maps an individual to its fitness. It receives the
// population as context and must not mutate it.
type FitnessEvaluator[T any] interface {
	Evaluate(value T, p *Population[T]) float64
}

type EvaluatorFunc[T any] func(value T, p *Population[T]) float64

func (f EvaluatorFunc[T]) Evaluate(value T, p *Population[T]) float64 {
	return f(value, p)
}

type zeroEvaluator[T any] struct{}

func (zeroEvaluator[T]) Evaluate(T, *Population[T]) float64 {
	return 0
}
