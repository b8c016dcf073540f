package monitor

import (
	"context"
	"fmt"

	"hybrid/internal/evo"
	"hybrid/internal/model"
	"hybrid/internal/storage"
)

// Recorder collects GenerationDiagnostics for a run.
type Recorder[T any] struct {
	describe    func(T) string
	diagnostics []model.GenerationDiagnostics
}

// NewRecorder returns a Recorder that renders the best individual of each
// generation with describe. A nil describe leaves BestValue empty.
func NewRecorder[T any](describe func(T) string) *Recorder[T] {
	return &Recorder[T]{describe: describe}
}

// Attach records the population at the start of every generation.
func (r *Recorder[T]) Attach(e *evo.Engine[T]) Detach {
	subs := watch(e)
	subs.onEngine(evo.EventNewGeneration, func(stats *evo.Statistics[T], _ any) {
		if stats.Population != nil {
			r.Record(stats.Population)
		}
	})
	return subs.detach
}

// Record appends the diagnostics of p's current generation. A generation
// already recorded is skipped.
func (r *Recorder[T]) Record(p *evo.Population[T]) {
	if n := len(r.diagnostics); n > 0 && r.diagnostics[n-1].Generation == p.Generation() {
		return
	}
	summary := summarize(&evo.Statistics[T]{Population: p})
	diag := model.GenerationDiagnostics{
		Generation:    p.Generation(),
		Size:          p.Size(),
		BestFitness:   summary.Best,
		WorstFitness:  summary.Worst,
		MeanFitness:   summary.Mean,
		StdDevFitness: summary.StdDev,
	}
	if best := p.Best(); best != nil && r.describe != nil {
		diag.BestValue = r.describe(best.Value)
	}
	r.diagnostics = append(r.diagnostics, diag)
}

func (r *Recorder[T]) Diagnostics() []model.GenerationDiagnostics {
	return append([]model.GenerationDiagnostics(nil), r.diagnostics...)
}

func (r *Recorder[T]) Save(ctx context.Context, store storage.Store, runID string) error {
	if err := store.SaveGenerationDiagnostics(ctx, runID, r.diagnostics); err != nil {
		return fmt.Errorf("save diagnostics for run %s: %w", runID, err)
	}
	return nil
}
