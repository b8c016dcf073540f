package evo

// Individual wraps an opaque candidate value. Identity is pointer identity:
// two Individuals holding equal values are still distinct individuals.
type Individual[T any] struct {
	Value T

	fitness *FitnessHandle[T]
}

func NewIndividual[T any](value T) *Individual[T] {
	return &Individual[T]{Value: value}
}

// Fitness returns the handle attached by the owning population, or nil when
// the individual was never added to one.
func (i *Individual[T]) Fitness() *FitnessHandle[T] {
	return i.fitness
}

// Score is shorthand for Fitness().Get(). It returns 0 for detached
// individuals.
func (i *Individual[T]) Score() float64 {
	if i.fitness == nil {
		return 0
	}
	return i.fitness.Get()
}

// FitnessHandle caches the fitness of one individual inside one population.
type FitnessHandle[T any] struct {
	owner      *Population[T]
	individual *Individual[T]
	value      float64
	cached     bool
}

// Get returns the cached fitness, evaluating it on first access.
func (h *FitnessHandle[T]) Get() float64 {
	if h.cached {
		return h.value
	}
	h.value = h.owner.EvaluateFitness(h.individual)
	h.cached = true
	return h.value
}

// Reset drops the cached value and expires the owner's sort cache. Call it
// after mutating an individual that is already part of a population.
func (h *FitnessHandle[T]) Reset() {
	h.cached = false
	h.value = 0
	h.owner.ExpireCache()
}

// IsBetterThan compares against other using the owner's comparator.
func (h *FitnessHandle[T]) IsBetterThan(other *Individual[T]) bool {
	if other == nil {
		return true
	}
	return h.owner.comparator.Compare(h.Get(), h.owner.fitnessOf(other)) < 0
}

func (h *FitnessHandle[T]) Cached() bool {
	return h.cached
}

func (h *FitnessHandle[T]) Population() *Population[T] {
	return h.owner
}
