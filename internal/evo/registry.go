package evo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrSelectionExists   = errors.New("selection already registered")
	ErrSelectionNotFound = errors.New("selection not found")
)

// SelectionFactory builds a selection from its single numeric parameter.
// Strategies without a parameter ignore it.
type SelectionFactory func(param float64) Selection

var selectionRegistry = struct {
	mu sync.RWMutex
	m  map[string]SelectionFactory
}{
	m: builtinSelections(),
}

func builtinSelections() map[string]SelectionFactory {
	return map[string]SelectionFactory{
		"uniform": func(float64) Selection { return UniformSelection{} },
		"tournament": func(rate float64) Selection {
			return NewTournamentSelection(rate)
		},
		"ranking": func(float64) Selection { return RankingSelection{} },
	}
}

// RegisterSelection makes a selection strategy resolvable by name.
func RegisterSelection(name string, factory SelectionFactory) error {
	if name == "" {
		return errors.New("selection name is required")
	}
	if factory == nil {
		return errors.New("selection factory is required")
	}

	selectionRegistry.mu.Lock()
	defer selectionRegistry.mu.Unlock()

	if _, exists := selectionRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrSelectionExists, name)
	}
	selectionRegistry.m[name] = factory
	return nil
}

func ResolveSelection(name string, param float64) (Selection, error) {
	selectionRegistry.mu.RLock()
	factory, ok := selectionRegistry.m[name]
	selectionRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSelectionNotFound, name)
	}
	sel := factory(param)
	if sel == nil {
		return nil, fmt.Errorf("%w: factory %s returned nil", ErrTypeMismatch, name)
	}
	return sel, nil
}

func ListSelections() []string {
	selectionRegistry.mu.RLock()
	defer selectionRegistry.mu.RUnlock()

	names := make([]string, 0, len(selectionRegistry.m))
	for name := range selectionRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetSelectionRegistryForTests() {
	selectionRegistry.mu.Lock()
	defer selectionRegistry.mu.Unlock()
	selectionRegistry.m = builtinSelections()
}
