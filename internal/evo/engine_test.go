package evo

import (
	"context"
	"errors"
	"testing"
	"time"

	"hybrid/internal/random"
)

type crossoverStub struct {
	emptyReturns    int
	nonEmptyReturns int
}

func (c *crossoverStub) Probability() float64 { return 0.5 }

func (c *crossoverStub) Execute(rng random.Source, mother, _ int, p *Population[int]) (int, bool, error) {
	if p == nil {
		return 0, false, errors.New("population should not be nil")
	}
	if rng.Probability(0.5) {
		c.nonEmptyReturns++
		return mother, true, nil
	}
	c.emptyReturns++
	return 0, false, nil
}

type mutationStub struct {
	emptyReturns    int
	nonEmptyReturns int
}

func (m *mutationStub) Probability() float64 { return 0.5 }

func (m *mutationStub) Execute(rng random.Source, v int, _ *Population[int]) (int, bool, error) {
	if rng.Probability(0.5) {
		m.nonEmptyReturns++
		return v + 1, true, nil
	}
	m.emptyReturns++
	return 0, false, nil
}

type fixedSelection struct {
	idx int
}

func (fixedSelection) Name() string { return "fixed" }

func (s fixedSelection) Select(random.Source, Pool) (int, error) { return s.idx, nil }

type engineFixture struct {
	engine    *Engine[int]
	factory   *countingFactory
	crossover *crossoverStub
	mutation  *mutationStub
}

func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()
	factory := &countingFactory{size: 10}
	p, err := NewPopulation(Options[int]{Factory: factory, Evaluator: identityEvaluator()})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	f := engineFixture{factory: factory, crossover: &crossoverStub{}, mutation: &mutationStub{}}
	f.engine, err = NewEngine(EngineOptions[int]{
		Population:    p,
		Random:        random.NewRandomizer(7),
		Selection:     RankingSelection{},
		Crossover:     f.crossover,
		Mutation:      f.mutation,
		StopCondition: NewElapsedGeneration[int](10),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return f
}

func (f engineFixture) assertFinished(t *testing.T) {
	t.Helper()
	p := f.engine.Population()
	if p.Generation() != 10 || p.Size() != 10 {
		t.Fatalf("unexpected generation=%d size=%d", p.Generation(), p.Size())
	}
	if f.factory.invocations == 0 {
		t.Fatal("expected factory to be used")
	}
	if f.crossover.emptyReturns == 0 || f.crossover.nonEmptyReturns == 0 {
		t.Fatalf("unexpected crossover returns: %+v", *f.crossover)
	}
	if f.mutation.emptyReturns == 0 || f.mutation.nonEmptyReturns == 0 {
		t.Fatalf("unexpected mutation returns: %+v", *f.mutation)
	}
	if f.engine.State() != StateTerminated {
		t.Fatalf("expected terminated state, got %s", f.engine.State())
	}
}

func TestNewEngineDefaults(t *testing.T) {
	e, err := NewEngine(EngineOptions[int]{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if e.Population() == nil || e.Random() == nil || e.Selection() == nil || e.Crossover() == nil ||
		e.Mutation() == nil || e.StopCondition() == nil || e.Events() == nil {
		t.Fatal("expected every collaborator to have a default")
	}
	if e.Selection().Name() != "ranking" {
		t.Fatalf("expected ranking selection, got %s", e.Selection().Name())
	}
	if e.Crossover().Probability() != DefaultCrossoverProbability || e.Mutation().Probability() != 0 {
		t.Fatal("unexpected default reproduction probabilities")
	}
	if e.State() != StateUnstarted {
		t.Fatalf("expected unstarted, got %s", e.State())
	}
}

func TestEngineEvolveSerial(t *testing.T) {
	f := newEngineFixture(t)
	generations := 0
	f.engine.On(EventNewGeneration, func(s *Statistics[int], params any) {
		if params.(string) != "tag" {
			t.Fatalf("unexpected params: %v", params)
		}
		generations++
	}, "tag")

	if err := f.engine.Evolve(context.Background()); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	f.assertFinished(t)
	if generations != 10 {
		t.Fatalf("expected 10 newGeneration events, got %d", generations)
	}
}

func TestEngineStartWithQueueScheduler(t *testing.T) {
	f := newEngineFixture(t)
	sched := NewQueueScheduler()

	run := f.engine.Start(context.Background(), sched)
	if sched.Len() != 1 || run.Err() != nil {
		t.Fatalf("expected one pending task, got %d", sched.Len())
	}
	if f.engine.Population().Initialized() {
		t.Fatal("expected Start to defer initialization")
	}

	ticks := 0
	for sched.Len() > 0 {
		ticks += sched.RunPending()
	}
	select {
	case <-run.Done():
	default:
		t.Fatal("expected run to be done")
	}
	if err := run.Wait(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ticks != 10 {
		t.Fatalf("expected 10 scheduled tasks, got %d", ticks)
	}
	f.assertFinished(t)
}

func TestEngineStartWithPacedScheduler(t *testing.T) {
	f := newEngineFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	run := f.engine.Start(ctx, NewPacedScheduler(time.Millisecond))
	if err := run.Wait(); err != nil {
		t.Fatalf("run: %v", err)
	}
	f.assertFinished(t)
}

func TestEngineStartCancelled(t *testing.T) {
	f := newEngineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	sched := NewQueueScheduler()
	run := f.engine.Start(ctx, sched)
	sched.RunPending()
	sched.RunPending()
	cancel()
	for sched.Len() > 0 {
		sched.RunPending()
	}
	if err := run.Wait(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if g := f.engine.Population().Generation(); g != 2 {
		t.Fatalf("expected evolution to stop at generation 2, got %d", g)
	}
}

func TestEngineStartRequiresScheduler(t *testing.T) {
	f := newEngineFixture(t)
	if err := f.engine.Start(context.Background(), nil).Wait(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEngineEvolveCancelled(t *testing.T) {
	f := newEngineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.engine.Evolve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEngineRejectsDegeneratePopulation(t *testing.T) {
	p, err := NewPopulation(Options[int]{Individuals: []int{1}})
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	e, err := NewEngine(EngineOptions[int]{Population: p})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Evolve(context.Background()); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestEngineNoDistinctParent(t *testing.T) {
	e, err := NewEngine(EngineOptions[int]{
		Population: numberPopulation(t, 3),
		Selection:  fixedSelection{idx: 1},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Evolve(context.Background()); !errors.Is(err, ErrNoDistinctParent) {
		t.Fatalf("expected ErrNoDistinctParent, got %v", err)
	}
}

func TestEngineSelectionOutOfRange(t *testing.T) {
	e, err := NewEngine(EngineOptions[int]{
		Population: numberPopulation(t, 3),
		Selection:  fixedSelection{idx: 5},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Evolve(context.Background()); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestEngineCrossoverErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	e, err := NewEngine(EngineOptions[int]{
		Population: numberPopulation(t, 4),
		Crossover: NewCrossover[int](1, RecombinerFunc[int](func(random.Source, int, int, *Population[int]) (int, bool, error) {
			return 0, false, boom
		})),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Evolve(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected crossover error, got %v", err)
	}
	if e.Population().Generation() != 0 {
		t.Fatal("failed breeding must not replace the generation")
	}
}

func TestEnginePreservesParentsWithoutChildren(t *testing.T) {
	p := numberPopulation(t, 5)
	parents := map[*Individual[int]]bool{}
	for _, ind := range p.Individuals() {
		parents[ind] = true
	}
	e, err := NewEngine(EngineOptions[int]{
		Population:    p,
		Selection:     UniformSelection{},
		StopCondition: Immediate[int]{},
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if err := e.Evolve(context.Background()); err != nil {
		t.Fatalf("evolve: %v", err)
	}
	if p.Generation() != 1 || p.Size() != 5 {
		t.Fatalf("unexpected generation=%d size=%d", p.Generation(), p.Size())
	}
	for _, ind := range p.Individuals() {
		if !parents[ind] {
			t.Fatalf("expected only carried-over parents, found new individual %d", ind.Value)
		}
	}
}

func TestEngineSettersRejectNil(t *testing.T) {
	e, err := NewEngine(EngineOptions[int]{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	checks := map[string]error{
		"population": e.SetPopulation(nil),
		"random":     e.SetRandom(nil),
		"selection":  e.SetSelection(nil),
		"crossover":  e.SetCrossover(nil),
		"mutation":   e.SetMutation(nil),
		"stop":       e.SetStopCondition(nil),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("%s: expected ErrTypeMismatch, got %v", name, err)
		}
	}

	sel := NewTournamentSelection(0.2)
	if err := e.SetSelection(sel); err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if e.Selection() != Selection(sel) {
		t.Fatal("expected selection to be replaced")
	}
}

func TestEngineListenerSubscription(t *testing.T) {
	e, err := NewEngine(EngineOptions[int]{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	count := e.Events().Count()
	sub := e.On("some event", func(*Statistics[int], any) {}, nil)
	if e.Events().Count() != count+1 {
		t.Fatal("expected listener to be registered")
	}
	e.Unsubscribe(sub)
	if e.Events().Count() != count {
		t.Fatal("expected listener to be removed")
	}
}
