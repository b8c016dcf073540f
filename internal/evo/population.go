package evo

import (
	"fmt"
	"slices"

	"hybrid/internal/event"
	"hybrid/internal/fitness"
	"hybrid/internal/random"
)

const (
	DefaultPopulationSize = 100

	// factoryMissLimit bounds consecutive empty Factory.Create results during
	// Initialize.
	factoryMissLimit = 10000
)

type Options[T any] struct {
	// Size is the target cardinality of every generation. Zero falls back to
	// the factory's InitialSize, then to DefaultPopulationSize.
	Size int
	// Generation seeds the generation counter; negative values become 0.
	Generation int
	// Individuals pre-seeds the population. A pre-seeded population is
	// initialized and its target size is len(Individuals).
	Individuals []T

	Factory    Factory[T]
	Evaluator  FitnessEvaluator[T]
	Comparator fitness.Comparator
	Statistics StatisticsProvider[T]

	// ElitismSize > 0 installs elitism at construction.
	ElitismSize int
}

// Population owns the individuals of a run, the generation counter and the
// memoized fitness ordering. It is not safe for concurrent use.
type Population[T any] struct {
	individuals []*Individual[T]
	generation  int
	targetSize  int
	initialized bool
	dirty       bool

	factory    Factory[T]
	evaluator  FitnessEvaluator[T]
	comparator fitness.Comparator
	statistics StatisticsProvider[T]

	events  *event.Handler[*Statistics[T]]
	elitism event.Subscription
}

func NewPopulation[T any](opts Options[T]) (*Population[T], error) {
	if opts.Size < 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", ErrConfiguration, opts.Size)
	}
	if opts.ElitismSize < 0 {
		return nil, fmt.Errorf("%w: elitism size must be >= 0, got %d", ErrConfiguration, opts.ElitismSize)
	}

	p := &Population[T]{
		generation: max(opts.Generation, 0),
		factory:    opts.Factory,
		evaluator:  opts.Evaluator,
		comparator: opts.Comparator,
		statistics: opts.Statistics,
		events:     event.NewHandler[*Statistics[T]](),
	}
	if p.factory == nil {
		p.factory = nullFactory[T]{}
	}
	if p.evaluator == nil {
		p.evaluator = zeroEvaluator[T]{}
	}
	if p.comparator == nil {
		p.comparator = fitness.NewComparator(fitness.HigherIsBetter)
	}
	if p.statistics == nil {
		p.statistics = DefaultStatistics[T]{}
	}

	switch {
	case len(opts.Individuals) > 0:
		p.targetSize = len(opts.Individuals)
	case opts.Size > 0:
		p.targetSize = opts.Size
	default:
		p.targetSize = DefaultPopulationSize
		if sizer, ok := p.factory.(InitialSizer); ok && sizer.InitialSize() > 0 {
			p.targetSize = sizer.InitialSize()
		}
	}

	if opts.ElitismSize > 0 {
		if err := SetElitism(p, opts.ElitismSize); err != nil {
			return nil, err
		}
	}

	if len(opts.Individuals) > 0 {
		for _, v := range opts.Individuals {
			if _, err := p.Add(v); err != nil {
				return nil, err
			}
		}
		p.initialized = true
	}
	return p, nil
}

// Initialize fills the population from its factory. It fails with
// ErrAlreadyInitialized, leaving the population untouched, when called on an
// initialized population. Any other failure rolls the population back to its
// state before the call.
func (p *Population[T]) Initialize(rng random.Source) (err error) {
	if p.initialized {
		return ErrAlreadyInitialized
	}
	if rng == nil {
		return fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}

	start, generation, dirty := len(p.individuals), p.generation, p.dirty
	defer func() {
		if err != nil {
			clear(p.individuals[start:])
			p.individuals = p.individuals[:start]
			p.generation, p.dirty = generation, dirty
		}
	}()

	p.generation = 0
	p.Notify(EventBeforeInitialize, p.Statistics())

	misses := 0
	for len(p.individuals) < p.targetSize {
		value, ok, err := p.factory.Create(rng, p)
		if err != nil {
			return fmt.Errorf("create individual %d: %w", len(p.individuals), err)
		}
		if !ok {
			misses++
			if misses >= factoryMissLimit {
				return fmt.Errorf("%w: factory produced no individual in %d consecutive attempts", ErrConfiguration, misses)
			}
			continue
		}
		misses = 0
		if _, err := p.Add(value); err != nil {
			return err
		}
	}

	p.initialized = true
	p.Notify(EventAfterInitialize, p.Statistics())
	return nil
}

// Add wraps value in a new Individual and appends it.
func (p *Population[T]) Add(value T) (*Individual[T], error) {
	ind := NewIndividual(value)
	if err := p.AddIndividual(ind); err != nil {
		return nil, err
	}
	return ind, nil
}

// AddIndividual attaches a fresh fitness handle, notifies addIndividual
// listeners and appends ind.
func (p *Population[T]) AddIndividual(ind *Individual[T]) error {
	if ind == nil {
		return fmt.Errorf("%w: individual is nil", ErrInvalidArgument)
	}
	if err := p.attach(ind); err != nil {
		return err
	}
	p.Notify(EventAddIndividual, &Statistics[T]{
		Population: p,
		Generation: p.generation,
		Size:       len(p.individuals),
		Individual: ind,
	})
	p.individuals = append(p.individuals, ind)
	p.dirty = true
	return nil
}

func (p *Population[T]) AddAll(individuals []*Individual[T]) error {
	for i, ind := range individuals {
		if ind == nil {
			return fmt.Errorf("%w: individual %d is nil", ErrInvalidArgument, i)
		}
	}
	for _, ind := range individuals {
		if err := p.AddIndividual(ind); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceGeneration swaps the current individuals for breed and advances the
// generation counter. replaceGeneration listeners run before the swap and may
// rewrite the breed; a breed whose size differs from the population, before
// or after the listeners, is rejected without touching the population.
func (p *Population[T]) ReplaceGeneration(breed []*Individual[T]) error {
	if len(breed) != len(p.individuals) {
		return fmt.Errorf("%w: got=%d want=%d", ErrIncompatibleBreed, len(breed), len(p.individuals))
	}

	stats := p.Statistics()
	stats.Breed = append([]*Individual[T](nil), breed...)
	p.Notify(EventReplaceGeneration, stats)

	next := stats.Breed
	if len(next) != len(p.individuals) {
		return fmt.Errorf("%w: listeners resized breed to %d, want %d", ErrIncompatibleBreed, len(next), len(p.individuals))
	}
	for i, ind := range next {
		if ind == nil {
			return fmt.Errorf("%w: breed entry %d is nil", ErrInvalidArgument, i)
		}
		if ind.fitness != nil && ind.fitness.owner != p {
			return fmt.Errorf("%w: breed entry %d", ErrAttachFitness, i)
		}
	}

	p.individuals = make([]*Individual[T], 0, len(next))
	if err := p.AddAll(next); err != nil {
		return err
	}
	p.dirty = true
	p.generation++
	return nil
}

// Sort orders individuals best first. It only does work after the
// population changed since the previous sort.
func (p *Population[T]) Sort() {
	if !p.dirty {
		return
	}
	p.dirty = false
	slices.SortStableFunc(p.individuals, func(a, b *Individual[T]) int {
		return p.comparator.Compare(a.fitness.Get(), b.fitness.Get())
	})
}

// Best returns the best individual, or nil for an empty population.
func (p *Population[T]) Best() *Individual[T] {
	p.Sort()
	if len(p.individuals) == 0 {
		return nil
	}
	return p.individuals[0]
}

// BestN returns up to n best individuals, best first.
func (p *Population[T]) BestN(n int) []*Individual[T] {
	p.Sort()
	n = min(max(n, 0), len(p.individuals))
	return append([]*Individual[T](nil), p.individuals[:n]...)
}

func (p *Population[T]) EvaluateFitness(ind *Individual[T]) float64 {
	return p.evaluator.Evaluate(ind.Value, p)
}

// ExpireCache forces the next Sort to reorder the individuals.
func (p *Population[T]) ExpireCache() {
	p.dirty = true
}

// IsBetter reports whether individual i is strictly better than individual j.
func (p *Population[T]) IsBetter(i, j int) bool {
	return p.comparator.Compare(p.individuals[i].fitness.Get(), p.individuals[j].fitness.Get()) < 0
}

// Individual returns the individual at index i, or nil when out of range.
func (p *Population[T]) Individual(i int) *Individual[T] {
	if i < 0 || i >= len(p.individuals) {
		return nil
	}
	return p.individuals[i]
}

// Individuals returns a copy of the current individual list.
func (p *Population[T]) Individuals() []*Individual[T] {
	return append([]*Individual[T](nil), p.individuals...)
}

func (p *Population[T]) Size() int {
	return len(p.individuals)
}

func (p *Population[T]) TargetSize() int {
	return p.targetSize
}

func (p *Population[T]) Generation() int {
	return p.generation
}

func (p *Population[T]) Initialized() bool {
	return p.initialized
}

func (p *Population[T]) Statistics() *Statistics[T] {
	return p.statistics.Compute(p)
}

func (p *Population[T]) On(typ event.Type, listener Listener[T], params any) event.Subscription {
	return p.events.AddListener(typ, listener, params)
}

func (p *Population[T]) Unsubscribe(sub event.Subscription) {
	p.events.RemoveListener(sub)
}

func (p *Population[T]) Notify(typ event.Type, stats *Statistics[T]) {
	if stats != nil {
		stats.Type = typ
	}
	p.events.NotifyListeners(typ, stats)
}

func (p *Population[T]) Events() *event.Handler[*Statistics[T]] {
	return p.events
}

// SetElitism installs or replaces the population's elitism listener.
func (p *Population[T]) SetElitism(size int) error {
	return SetElitism(p, size)
}

func (p *Population[T]) Factory() Factory[T] { return p.factory }

func (p *Population[T]) SetFactory(f Factory[T]) error {
	if f == nil {
		return fmt.Errorf("%w: individual factory", ErrTypeMismatch)
	}
	p.factory = f
	return nil
}

func (p *Population[T]) FitnessEvaluator() FitnessEvaluator[T] { return p.evaluator }

func (p *Population[T]) SetFitnessEvaluator(e FitnessEvaluator[T]) error {
	if e == nil {
		return fmt.Errorf("%w: fitness evaluator", ErrTypeMismatch)
	}
	p.evaluator = e
	p.expireFitness()
	return nil
}

func (p *Population[T]) FitnessComparator() fitness.Comparator { return p.comparator }

func (p *Population[T]) SetFitnessComparator(c fitness.Comparator) error {
	if c == nil {
		return fmt.Errorf("%w: fitness comparator", ErrTypeMismatch)
	}
	p.comparator = c
	p.dirty = true
	return nil
}

func (p *Population[T]) StatisticsProvider() StatisticsProvider[T] { return p.statistics }

func (p *Population[T]) SetStatisticsProvider(s StatisticsProvider[T]) error {
	if s == nil {
		return fmt.Errorf("%w: statistics provider", ErrTypeMismatch)
	}
	p.statistics = s
	return nil
}

// attach gives ind a fresh fitness handle owned by p. Individuals carrying a
// handle from another population are rejected.
func (p *Population[T]) attach(ind *Individual[T]) error {
	if ind.fitness != nil && ind.fitness.owner != p {
		return ErrAttachFitness
	}
	ind.fitness = &FitnessHandle[T]{owner: p, individual: ind}
	return nil
}

func (p *Population[T]) fitnessOf(ind *Individual[T]) float64 {
	if ind.fitness != nil && ind.fitness.owner == p {
		return ind.fitness.Get()
	}
	return p.EvaluateFitness(ind)
}

func (p *Population[T]) expireFitness() {
	for _, ind := range p.individuals {
		ind.fitness.cached = false
	}
	p.dirty = true
}
