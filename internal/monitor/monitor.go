// Package monitor observes evolution runs through engine and population
// events: structured logs, Prometheus metrics, OpenTelemetry spans and
// per-generation diagnostics.
package monitor

import (
	"log/slog"

	"hybrid/internal/event"
	"hybrid/internal/evo"
	"hybrid/internal/fitness"
)

// Detach removes the listeners installed by an Attach call.
type Detach func()

type subscriptions[T any] struct {
	engine     *evo.Engine[T]
	population *evo.Population[T]
	engineSubs []event.Subscription
	popSubs    []event.Subscription
}

func (s *subscriptions[T]) onEngine(typ event.Type, l evo.Listener[T]) {
	s.engineSubs = append(s.engineSubs, s.engine.On(typ, l, nil))
}

func (s *subscriptions[T]) onPopulation(typ event.Type, l evo.Listener[T]) {
	s.popSubs = append(s.popSubs, s.population.On(typ, l, nil))
}

func (s *subscriptions[T]) detach() {
	for _, sub := range s.engineSubs {
		s.engine.Unsubscribe(sub)
	}
	for _, sub := range s.popSubs {
		s.population.Unsubscribe(sub)
	}
	s.engineSubs, s.popSubs = nil, nil
}

func watch[T any](e *evo.Engine[T]) *subscriptions[T] {
	return &subscriptions[T]{engine: e, population: e.Population()}
}

// summarize prefers the summary carried by stats and computes one otherwise.
func summarize[T any](stats *evo.Statistics[T]) fitness.Summary {
	if stats.Fitness != nil {
		return *stats.Fitness
	}
	p := stats.Population
	if p == nil || p.Size() == 0 {
		return fitness.Summary{}
	}
	values := make([]float64, 0, p.Size())
	for _, ind := range p.Individuals() {
		values = append(values, ind.Score())
	}
	return fitness.Summarize(values, p.FitnessComparator())
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
