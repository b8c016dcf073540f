package evo

import (
	"hybrid/internal/event"
	"hybrid/internal/fitness"
)

const (
	EventBeforeInitialize  event.Type = "beforeInitialize"
	EventAfterInitialize   event.Type = "afterInitialize"
	EventAddIndividual     event.Type = "addIndividual"
	EventReplaceGeneration event.Type = "replaceGeneration"
	EventNewGeneration     event.Type = "newGeneration"
)

// Statistics is the payload handed to listeners. A fresh value is built for
// every notification.
type Statistics[T any] struct {
	Type       event.Type
	Population *Population[T]
	Generation int
	Size       int

	// Individual is set for addIndividual.
	Individual *Individual[T]
	// Breed is set for replaceGeneration. Listeners may replace it; the
	// population commits whatever Breed holds after notification.
	Breed []*Individual[T]
	// Fitness is set by SummaryStatistics.
	Fitness *fitness.Summary
}

type Listener[T any] = event.Listener[*Statistics[T]]

// StatisticsProvider builds the payload for population and engine events.
type StatisticsProvider[T any] interface {
	Compute(p *Population[T]) *Statistics[T]
}

// DefaultStatistics reports only the population, its generation and size.
type DefaultStatistics[T any] struct{}

func (DefaultStatistics[T]) Compute(p *Population[T]) *Statistics[T] {
	return &Statistics[T]{
		Population: p,
		Generation: p.Generation(),
		Size:       p.Size(),
	}
}

// SummaryStatistics additionally summarizes the fitness of every individual.
// It forces fitness evaluation of the whole population on each event.
type SummaryStatistics[T any] struct{}

func (SummaryStatistics[T]) Compute(p *Population[T]) *Statistics[T] {
	stats := DefaultStatistics[T]{}.Compute(p)
	values := make([]float64, 0, p.Size())
	for _, ind := range p.individuals {
		values = append(values, p.fitnessOf(ind))
	}
	summary := fitness.Summarize(values, p.comparator)
	stats.Fitness = &summary
	return stats
}
