package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hybrid/internal/evo"
	"hybrid/internal/model"
)

// Metrics holds the run collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	bestFitness        *prometheus.GaugeVec
	meanFitness        *prometheus.GaugeVec
	populationSize     *prometheus.GaugeVec
	generationDuration *prometheus.HistogramVec
}

func NewMetrics() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybrid_generations_total",
			Help: "Generations replaced",
		},
		[]string{"problem"},
	)
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hybrid_runs_total",
			Help: "Finished runs by status",
		},
		[]string{"problem", "status"},
	)
	m.bestFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hybrid_best_fitness",
			Help: "Fitness of the best individual of the current generation",
		},
		[]string{"problem"},
	)
	m.meanFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hybrid_mean_fitness",
			Help: "Mean fitness of the current generation",
		},
		[]string{"problem"},
	)
	m.populationSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hybrid_population_size",
			Help: "Individuals in the current generation",
		},
		[]string{"problem"},
	)
	m.generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hybrid_generation_duration_seconds",
			Help:    "Wall time from the start of a generation to its replacement",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"problem"},
	)

	collectors := []prometheus.Collector{
		m.generationsTotal,
		m.runsTotal,
		m.bestFitness,
		m.meanFitness,
		m.populationSize,
		m.generationDuration,
	}
	for _, c := range collectors {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRun counts a finished run.
func (m *Metrics) ObserveRun(problem string, status model.RunStatus) {
	m.runsTotal.WithLabelValues(problem, string(status)).Inc()
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// AttachMetrics updates the gauges at the start of every generation. A
// generation is counted, and its duration observed, once the population's
// generation counter has advanced past it, so rejected replacements are never
// counted. The last generation is settled by the returned Detach.
func AttachMetrics[T any](e *evo.Engine[T], m *Metrics, problem string) Detach {
	subs := watch(e)
	var started time.Time
	seen := -1

	settle := func() {
		if seen < 0 {
			return
		}
		g := e.Population().Generation()
		if g <= seen {
			return
		}
		m.generationsTotal.WithLabelValues(problem).Add(float64(g - seen))
		m.generationDuration.WithLabelValues(problem).Observe(time.Since(started).Seconds())
		seen = g
	}

	subs.onEngine(evo.EventNewGeneration, func(stats *evo.Statistics[T], _ any) {
		settle()
		seen = stats.Generation
		started = time.Now()
		summary := summarize(stats)
		m.bestFitness.WithLabelValues(problem).Set(summary.Best)
		m.meanFitness.WithLabelValues(problem).Set(summary.Mean)
		m.populationSize.WithLabelValues(problem).Set(float64(stats.Size))
	})
	return func() {
		subs.detach()
		settle()
	}
}
