// Package hybrid is the public surface of the evolution engine: aliases of
// the core types plus a Client that runs, records and lists evolutions.
package hybrid

import (
	"hybrid/internal/evo"
	"hybrid/internal/fitness"
	"hybrid/internal/random"
)

type (
	Individual[T any]         = evo.Individual[T]
	FitnessHandle[T any]      = evo.FitnessHandle[T]
	Population[T any]         = evo.Population[T]
	PopulationOptions[T any]  = evo.Options[T]
	Engine[T any]             = evo.Engine[T]
	EngineOptions[T any]      = evo.EngineOptions[T]
	Statistics[T any]         = evo.Statistics[T]
	Listener[T any]           = evo.Listener[T]
	Factory[T any]            = evo.Factory[T]
	FitnessEvaluator[T any]   = evo.FitnessEvaluator[T]
	Recombiner[T any]         = evo.Recombiner[T]
	Mutator[T any]            = evo.Mutator[T]
	CrossoverStrategy[T any]  = evo.CrossoverStrategy[T]
	MutationStrategy[T any]   = evo.MutationStrategy[T]
	StopCondition[T any]      = evo.StopCondition[T]
	ElapsedGeneration[T any]  = evo.ElapsedGeneration[T]
	FitnessGoal[T any]        = evo.FitnessGoal[T]
	AnyOf[T any]              = evo.AnyOf[T]
	SummaryStatistics[T any]  = evo.SummaryStatistics[T]
	DefaultStatistics[T any]  = evo.DefaultStatistics[T]
	StatisticsProvider[T any] = evo.StatisticsProvider[T]

	Selection  = evo.Selection
	Scheduler  = evo.Scheduler
	Run        = evo.Run
	State      = evo.State
	Source     = random.Source
	Range      = random.Range
	Comparator = fitness.Comparator
	Direction  = fitness.Direction
)

const (
	HigherIsBetter = fitness.HigherIsBetter
	LowerIsBetter  = fitness.LowerIsBetter
)

var (
	ErrAlreadyInitialized = evo.ErrAlreadyInitialized
	ErrIncompatibleBreed  = evo.ErrIncompatibleBreed
	ErrInvalidArgument    = evo.ErrInvalidArgument
	ErrTypeMismatch       = evo.ErrTypeMismatch
	ErrAttachFitness      = evo.ErrAttachFitness
	ErrConfiguration      = evo.ErrConfiguration
	ErrEmptyPopulation    = evo.ErrEmptyPopulation
	ErrNoDistinctParent   = evo.ErrNoDistinctParent
	ErrSelectionNotFound  = evo.ErrSelectionNotFound
)

func NewPopulation[T any](opts PopulationOptions[T]) (*Population[T], error) {
	return evo.NewPopulation(opts)
}

func NewEngine[T any](opts EngineOptions[T]) (*Engine[T], error) {
	return evo.NewEngine(opts)
}

func NewCrossover[T any](probability float64, r Recombiner[T]) *evo.Crossover[T] {
	return evo.NewCrossover(probability, r)
}

func NewMutation[T any](probability float64, m Mutator[T]) *evo.Mutation[T] {
	return evo.NewMutation(probability, m)
}

func NewElapsedGeneration[T any](limit int) ElapsedGeneration[T] {
	return evo.NewElapsedGeneration[T](limit)
}

func SetElitism[T any](p *Population[T], size int) error {
	return evo.SetElitism(p, size)
}

func NewRandomizer(seed int64) Source {
	return random.NewRandomizer(seed)
}

func NewComparator(d Direction) Comparator {
	return fitness.NewComparator(d)
}

// ResolveSelection builds a registered selection strategy by name.
func ResolveSelection(name string, param float64) (Selection, error) {
	return evo.ResolveSelection(name, param)
}

func Selections() []string {
	return evo.ListSelections()
}
