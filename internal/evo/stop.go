package evo

const DefaultGenerationLimit = 100

// StopCondition decides, after each generation, whether evolution is over.
// It receives fresh statistics of the replaced population.
type StopCondition[T any] interface {
	Interrupt(stats *Statistics[T]) bool
}

type StopFunc[T any] func(stats *Statistics[T]) bool

func (f StopFunc[T]) Interrupt(stats *Statistics[T]) bool {
	return f(stats)
}

// Immediate stops after the first generation.
type Immediate[T any] struct{}

func (Immediate[T]) Interrupt(*Statistics[T]) bool {
	return true
}

// ElapsedGeneration stops once the population reached Limit generations.
type ElapsedGeneration[T any] struct {
	Limit int
}

// NewElapsedGeneration replaces non-positive limits with
// DefaultGenerationLimit.
func NewElapsedGeneration[T any](limit int) ElapsedGeneration[T] {
	if limit <= 0 {
		limit = DefaultGenerationLimit
	}
	return ElapsedGeneration[T]{Limit: limit}
}

func (c ElapsedGeneration[T]) Interrupt(stats *Statistics[T]) bool {
	generation := stats.Generation
	if stats.Population != nil {
		generation = stats.Population.Generation()
	}
	return generation >= c.Limit
}

// FitnessGoal stops once the best individual reaches Goal under the
// population's comparator.
type FitnessGoal[T any] struct {
	Goal float64
}

func (c FitnessGoal[T]) Interrupt(stats *Statistics[T]) bool {
	p := stats.Population
	if p == nil {
		return false
	}
	best := p.Best()
	if best == nil {
		return false
	}
	return p.FitnessComparator().Compare(best.Score(), c.Goal) <= 0
}

// AnyOf stops when at least one of its conditions does. Every condition is
// consulted so stateful conditions observe each generation.
type AnyOf[T any] []StopCondition[T]

func (c AnyOf[T]) Interrupt(stats *Statistics[T]) bool {
	stop := false
	for _, cond := range c {
		if cond != nil && cond.Interrupt(stats) {
			stop = true
		}
	}
	return stop
}
