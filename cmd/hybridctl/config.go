package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"hybrid/internal/config"
	"hybrid/internal/monitor"
)

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Defaults(), nil
	}
	return config.Load(path)
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func bindStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", "memory", "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", "hybrid.db", "sqlite database path"),
	}
}

// apply copies the store flags the user set explicitly over cfg.
func (s storeFlags) apply(fs *flag.FlagSet, cfg *config.Config) {
	set := setFlags(fs)
	if set["store"] {
		cfg.Store.Kind = *s.kind
	}
	if set["db-path"] || (cfg.Store.Kind == "sqlite" && cfg.Store.DBPath == "") {
		cfg.Store.DBPath = *s.dbPath
	}
}

type runFlags struct {
	store storeFlags

	target      *string
	population  *int
	generations *int
	direction   *string
	selection   *string
	rate        *float64
	crossover   *float64
	mutation    *float64
	elitism     *int
	fitnessGoal *float64
	seed        *int64
	mode        *string
	tick        *time.Duration
	logLevel    *string
	metricsAddr *string
	otlp        *string
}

func bindRunFlags(fs *flag.FlagSet) runFlags {
	d := config.Defaults()
	return runFlags{
		store:       bindStoreFlags(fs),
		target:      fs.String("target", d.Sample.Target, "word to evolve"),
		population:  fs.Int("pop", d.Population.Size, "population size"),
		generations: fs.Int("gens", d.Stop.Generations, "generation limit"),
		direction:   fs.String("direction", d.Fitness.Direction, "fitness direction: higher|lower"),
		selection:   fs.String("selection", d.Selection.Name, "selection strategy: uniform|tournament|ranking"),
		rate:        fs.Float64("rate", d.Selection.Rate, "tournament sampling rate"),
		crossover:   fs.Float64("crossover", d.Crossover.Probability, "crossover probability"),
		mutation:    fs.Float64("mutation", d.Mutation.Probability, "mutation probability"),
		elitism:     fs.Int("elitism", d.Elitism.Size, "elite individuals carried into each generation"),
		fitnessGoal: fs.Float64("fitness-goal", 0, "stop once the best fitness reaches this value"),
		seed:        fs.Int64("seed", d.Engine.Seed, "rng seed"),
		mode:        fs.String("mode", d.Engine.Mode, "engine mode: serial|paced"),
		tick:        fs.Duration("tick", time.Duration(d.Engine.Tick), "generation interval in paced mode"),
		logLevel:    fs.String("log-level", d.Observe.LogLevel, "log level: debug|info|warn|error"),
		metricsAddr: fs.String("metrics-addr", "", "serve prometheus metrics on this address during the run"),
		otlp:        fs.String("otlp-endpoint", "", "export traces to this OTLP gRPC endpoint"),
	}
}

// apply copies the run flags the user set explicitly over cfg, so a config
// file keeps its values for flags left at their defaults.
func (r runFlags) apply(fs *flag.FlagSet, cfg *config.Config) error {
	r.store.apply(fs, cfg)
	for name := range setFlags(fs) {
		switch name {
		case "target":
			cfg.Sample.Target = *r.target
		case "pop":
			cfg.Population.Size = *r.population
		case "gens":
			cfg.Stop.Generations = *r.generations
		case "direction":
			cfg.Fitness.Direction = *r.direction
		case "selection":
			cfg.Selection.Name = *r.selection
		case "rate":
			cfg.Selection.Rate = *r.rate
		case "crossover":
			cfg.Crossover.Probability = *r.crossover
		case "mutation":
			cfg.Mutation.Probability = *r.mutation
		case "elitism":
			cfg.Elitism.Size = *r.elitism
		case "fitness-goal":
			goal := *r.fitnessGoal
			cfg.Stop.FitnessGoal = &goal
		case "seed":
			cfg.Engine.Seed = *r.seed
		case "mode":
			cfg.Engine.Mode = *r.mode
		case "tick":
			if *r.tick < 0 {
				return fmt.Errorf("tick must be >= 0, got %s", *r.tick)
			}
			cfg.Engine.Tick = config.Duration(*r.tick)
		case "log-level":
			cfg.Observe.LogLevel = *r.logLevel
		case "metrics-addr":
			cfg.Observe.MetricsAddr = *r.metricsAddr
		case "otlp-endpoint":
			cfg.Observe.OTLPEndpoint = *r.otlp
		}
	}
	return nil
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

type tracerHandle struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

func newTracer(ctx context.Context, endpoint string) (*tracerHandle, error) {
	provider, err := monitor.NewTracerProvider(ctx, monitor.TracingOptions{
		Endpoint:    endpoint,
		ServiceName: "hybridctl",
		Insecure:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	return &tracerHandle{provider: provider, tracer: monitor.Tracer(provider)}, nil
}

func (h *tracerHandle) shutdown(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.provider.Shutdown(ctx); err != nil {
		logger.Warn("tracer shutdown", slog.Any("error", err))
	}
}
