package evo

import "fmt"

// SetElitism makes p carry its best individuals across generations. On every
// replaceGeneration the first size entries of the proposed breed are dropped
// and the size best individuals of the outgoing generation are appended.
// Only one elitism listener is active per population; calling SetElitism
// again replaces the previous one.
func SetElitism[T any](p *Population[T], size int) error {
	if p == nil {
		return fmt.Errorf("%w: elitism requires a population", ErrConfiguration)
	}
	if size < 0 {
		return fmt.Errorf("%w: elitism size must be >= 0, got %d", ErrConfiguration, size)
	}
	p.events.RemoveListener(p.elitism)
	p.elitism = p.events.AddListener(EventReplaceGeneration, preserveElite[T], size)
	return nil
}

// AddElitism is an alias of SetElitism.
func AddElitism[T any](p *Population[T], size int) error {
	return SetElitism(p, size)
}

func preserveElite[T any](stats *Statistics[T], params any) {
	size, _ := params.(int)
	size = min(size, len(stats.Breed))
	if size <= 0 {
		return
	}
	breed := append([]*Individual[T](nil), stats.Breed[size:]...)
	breed = append(breed, stats.Population.BestN(size)...)
	stats.Breed = breed
}
