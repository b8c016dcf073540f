package monitor

import (
	"context"
	"log/slog"

	"hybrid/internal/evo"
)

// AttachLogger logs initialization at info level and every generation at
// debug level. Fitness is only summarized when debug logging is enabled.
func AttachLogger[T any](e *evo.Engine[T], logger *slog.Logger) Detach {
	logger = orDefault(logger)
	subs := watch(e)

	subs.onPopulation(evo.EventAfterInitialize, func(stats *evo.Statistics[T], _ any) {
		logger.Info("population initialized",
			slog.Int("size", stats.Size),
			slog.Int("generation", stats.Generation),
		)
	})
	subs.onEngine(evo.EventNewGeneration, func(stats *evo.Statistics[T], _ any) {
		if !logger.Enabled(context.Background(), slog.LevelDebug) {
			return
		}
		summary := summarize(stats)
		logger.Debug("generation",
			slog.Int("generation", stats.Generation),
			slog.Int("size", stats.Size),
			slog.Float64("best", summary.Best),
			slog.Float64("mean", summary.Mean),
		)
	})
	subs.onPopulation(evo.EventReplaceGeneration, func(stats *evo.Statistics[T], _ any) {
		logger.Debug("replacing generation",
			slog.Int("generation", stats.Generation),
			slog.Int("breed", len(stats.Breed)),
		)
	})
	return subs.detach
}
