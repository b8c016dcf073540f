package evo

import (
	"context"
	"fmt"
	"sync/atomic"

	"hybrid/internal/event"
	"hybrid/internal/random"
)

// minMotherAttempts is the floor for consecutive mother picks that may land
// on the father before breeding gives up.
const minMotherAttempts = 1000

type State int32

const (
	StateUnstarted State = iota
	StateInitializing
	StateEvaluating
	StateBreeding
	StateReplacing
	StateCheckStop
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateInitializing:
		return "initializing"
	case StateEvaluating:
		return "evaluating"
	case StateBreeding:
		return "breeding"
	case StateReplacing:
		return "replacing"
	case StateCheckStop:
		return "check_stop"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type EngineOptions[T any] struct {
	Population *Population[T]
	// Random takes precedence over Seed.
	Random        random.Source
	Seed          int64
	Selection     Selection
	Crossover     CrossoverStrategy[T]
	Mutation      MutationStrategy[T]
	StopCondition StopCondition[T]
}

// Engine drives a population through generations of selection, crossover,
// mutation and replacement until its stop condition fires.
type Engine[T any] struct {
	population *Population[T]
	rng        random.Source
	selection  Selection
	crossover  CrossoverStrategy[T]
	mutation   MutationStrategy[T]
	stop       StopCondition[T]

	events *event.Handler[*Statistics[T]]
	state  atomic.Int32
}

func NewEngine[T any](opts EngineOptions[T]) (*Engine[T], error) {
	e := &Engine[T]{
		population: opts.Population,
		rng:        opts.Random,
		selection:  opts.Selection,
		crossover:  opts.Crossover,
		mutation:   opts.Mutation,
		stop:       opts.StopCondition,
		events:     event.NewHandler[*Statistics[T]](),
	}
	if e.population == nil {
		p, err := NewPopulation(Options[T]{})
		if err != nil {
			return nil, err
		}
		e.population = p
	}
	if e.rng == nil {
		e.rng = random.NewRandomizer(opts.Seed)
	}
	if e.selection == nil {
		e.selection = RankingSelection{}
	}
	if e.crossover == nil {
		e.crossover = NewCrossover[T](DefaultCrossoverProbability, nil)
	}
	if e.mutation == nil {
		e.mutation = NewMutation[T](DefaultMutationProbability, nil)
	}
	if e.stop == nil {
		e.stop = NewElapsedGeneration[T](DefaultGenerationLimit)
	}
	return e, nil
}

// Evolve runs the whole evolution on the calling goroutine. The population is
// initialized first unless it already is. Cancellation of ctx is honoured
// between generations and while picking parents.
func (e *Engine[T]) Evolve(ctx context.Context) error {
	defer e.setState(StateTerminated)

	if err := e.prepare(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := e.step(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Start runs the evolution as a chain of tasks handed to sched, one task per
// generation, and returns immediately. At most one task of a run is pending
// at any time.
func (e *Engine[T]) Start(ctx context.Context, sched Scheduler) *Run {
	run := newRun()
	if sched == nil {
		e.setState(StateTerminated)
		run.finish(fmt.Errorf("%w: scheduler is required", ErrInvalidArgument))
		return run
	}

	finish := func(err error) {
		e.setState(StateTerminated)
		run.finish(err)
	}

	var generation func(context.Context)
	generation = func(ctx context.Context) {
		if err := ctx.Err(); err != nil {
			finish(err)
			return
		}
		done, err := e.step(ctx)
		if err != nil || done {
			finish(err)
			return
		}
		sched.Schedule(ctx, generation)
	}

	sched.Schedule(ctx, func(ctx context.Context) {
		if err := ctx.Err(); err != nil {
			finish(err)
			return
		}
		if err := e.prepare(); err != nil {
			finish(err)
			return
		}
		generation(ctx)
	})
	return run
}

func (e *Engine[T]) prepare() error {
	e.setState(StateInitializing)
	p := e.population
	if !p.Initialized() {
		if err := p.Initialize(e.rng); err != nil {
			return fmt.Errorf("initialize population: %w", err)
		}
	}
	if p.Size() < 2 {
		return fmt.Errorf("%w: breeding needs at least 2 individuals, got %d", ErrConfiguration, p.Size())
	}
	return nil
}

// step processes one generation and reports whether the stop condition fired.
func (e *Engine[T]) step(ctx context.Context) (bool, error) {
	p := e.population

	e.setState(StateEvaluating)
	e.Notify(EventNewGeneration, p.Statistics())

	e.setState(StateBreeding)
	breed, err := e.breed(ctx)
	if err != nil {
		return false, fmt.Errorf("breed generation %d: %w", p.Generation(), err)
	}

	e.setState(StateReplacing)
	if err := p.ReplaceGeneration(breed); err != nil {
		return false, fmt.Errorf("replace generation %d: %w", p.Generation(), err)
	}

	e.setState(StateCheckStop)
	return e.stop.Interrupt(p.Statistics()), nil
}

// breed fills a new generation. When crossover yields no child both parents
// are carried over instead.
func (e *Engine[T]) breed(ctx context.Context) ([]*Individual[T], error) {
	p := e.population
	size := p.Size()
	breed := make([]*Individual[T], 0, size)

	for len(breed) < size {
		father, err := e.pick()
		if err != nil {
			return nil, fmt.Errorf("select father: %w", err)
		}
		mother, err := e.selectMother(ctx, father)
		if err != nil {
			return nil, err
		}

		child, ok, err := e.crossover.Execute(e.rng, mother.Value, father.Value, p)
		if err != nil {
			return nil, fmt.Errorf("crossover: %w", err)
		}
		if !ok {
			breed = append(breed, father)
			if len(breed) < size {
				breed = append(breed, mother)
			}
			continue
		}

		mutated, ok, err := e.mutation.Execute(e.rng, child, p)
		if err != nil {
			return nil, fmt.Errorf("mutation: %w", err)
		}
		if ok {
			child = mutated
		}
		breed = append(breed, NewIndividual(child))
	}
	return breed, nil
}

func (e *Engine[T]) selectMother(ctx context.Context, father *Individual[T]) (*Individual[T], error) {
	limit := max(minMotherAttempts, 100*e.population.Size())
	for attempt := 0; attempt < limit; attempt++ {
		if attempt%minMotherAttempts == minMotherAttempts-1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		mother, err := e.pick()
		if err != nil {
			return nil, fmt.Errorf("select mother: %w", err)
		}
		if mother != father {
			return mother, nil
		}
	}
	return nil, fmt.Errorf("%w: %d picks returned the father", ErrNoDistinctParent, limit)
}

func (e *Engine[T]) pick() (*Individual[T], error) {
	idx, err := e.selection.Select(e.rng, e.population)
	if err != nil {
		return nil, err
	}
	ind := e.population.Individual(idx)
	if ind == nil {
		return nil, fmt.Errorf("%w: %s selection returned index %d for size %d",
			ErrInvalidArgument, e.selection.Name(), idx, e.population.Size())
	}
	return ind, nil
}

func (e *Engine[T]) State() State {
	return State(e.state.Load())
}

func (e *Engine[T]) setState(s State) {
	e.state.Store(int32(s))
}

func (e *Engine[T]) On(typ event.Type, listener Listener[T], params any) event.Subscription {
	return e.events.AddListener(typ, listener, params)
}

func (e *Engine[T]) Unsubscribe(sub event.Subscription) {
	e.events.RemoveListener(sub)
}

func (e *Engine[T]) Notify(typ event.Type, stats *Statistics[T]) {
	if stats != nil {
		stats.Type = typ
	}
	e.events.NotifyListeners(typ, stats)
}

func (e *Engine[T]) Events() *event.Handler[*Statistics[T]] {
	return e.events
}

func (e *Engine[T]) Population() *Population[T] { return e.population }

func (e *Engine[T]) SetPopulation(p *Population[T]) error {
	if p == nil {
		return fmt.Errorf("%w: population", ErrTypeMismatch)
	}
	e.population = p
	return nil
}

func (e *Engine[T]) Random() random.Source { return e.rng }

func (e *Engine[T]) SetRandom(rng random.Source) error {
	if rng == nil {
		return fmt.Errorf("%w: random source", ErrTypeMismatch)
	}
	e.rng = rng
	return nil
}

func (e *Engine[T]) Selection() Selection { return e.selection }

func (e *Engine[T]) SetSelection(s Selection) error {
	if s == nil {
		return fmt.Errorf("%w: selection", ErrTypeMismatch)
	}
	e.selection = s
	return nil
}

func (e *Engine[T]) Crossover() CrossoverStrategy[T] { return e.crossover }

func (e *Engine[T]) SetCrossover(c CrossoverStrategy[T]) error {
	if c == nil {
		return fmt.Errorf("%w: crossover", ErrTypeMismatch)
	}
	e.crossover = c
	return nil
}

func (e *Engine[T]) Mutation() MutationStrategy[T] { return e.mutation }

func (e *Engine[T]) SetMutation(m MutationStrategy[T]) error {
	if m == nil {
		return fmt.Errorf("%w: mutation", ErrTypeMismatch)
	}
	e.mutation = m
	return nil
}

func (e *Engine[T]) StopCondition() StopCondition[T] { return e.stop }

func (e *Engine[T]) SetStopCondition(c StopCondition[T]) error {
	if c == nil {
		return fmt.Errorf("%w: stop condition", ErrTypeMismatch)
	}
	e.stop = c
	return nil
}
