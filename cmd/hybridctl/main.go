package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"hybrid/internal/config"
	"hybrid/internal/model"
	"hybrid/internal/monitor"
	"hybrid/pkg/hybrid"
)

const defaultConfigPath = "hybrid.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "selections":
		return runSelections(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	out := fs.String("out", defaultConfigPath, "config file to write (.yaml, .yml or .toml)")
	force := fs.Bool("force", false, "overwrite an existing config file")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(*out); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", *out)
		}
	}
	cfg := config.Defaults()
	store.apply(fs, &cfg)
	if err := config.Write(*out, cfg); err != nil {
		return err
	}

	client, err := newClient(cfg, nil, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized config=%s store=%s\n", *out, cfg.Store.Kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional config file")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store.apply(fs, &cfg)

	client, err := newClient(cfg, nil, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Reset(ctx); err != nil {
		return err
	}

	fmt.Printf("reset store=%s\n", cfg.Store.Kind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional config file (.yaml, .yml, .json or .toml)")
	jsonOut := fs.Bool("json", false, "emit the run summary as JSON")
	overrides := bindRunFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := overrides.apply(fs, &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Observe.LogLevel)
	if err != nil {
		return err
	}

	var metrics *monitor.Metrics
	if cfg.Observe.MetricsAddr != "" {
		metrics, err = monitor.NewMetrics()
		if err != nil {
			return err
		}
		serveCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(serveCtx, cfg.Observe.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	var tracing *tracerHandle
	if cfg.Observe.OTLPEndpoint != "" {
		tracing, err = newTracer(ctx, cfg.Observe.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer tracing.shutdown(logger)
	}

	client, err := newClient(cfg, logger, metrics, tracing)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, runErr := client.Run(ctx, hybrid.RunRequest{Config: cfg})
	if summary.RunID == "" {
		return runErr
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaryItem(summary)); err != nil {
			return err
		}
		return runErr
	}

	fmt.Printf("run_id=%s generations=%s best=%q fitness=%.4f found=%t elapsed=%s\n",
		summary.RunID,
		humanize.Comma(int64(summary.Generations)),
		summary.BestValue,
		summary.BestFitness,
		summary.Found,
		summary.Duration.Round(time.Microsecond),
	)
	return runErr
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional config file")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store.apply(fs, &cfg)

	client, err := newClient(cfg, nil, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, hybrid.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("run_id=%s started=%q status=%s selection=%s pop=%s gens=%s best=%q fitness=%.4f\n",
			r.ID,
			humanize.Time(r.StartedAt),
			r.Status,
			r.Selection,
			humanize.Comma(int64(r.PopulationSize)),
			humanize.Comma(int64(r.Generations)),
			r.BestValue,
			r.BestFitness,
		)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional config file")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	store := bindStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("diagnostics requires --run-id or --latest")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store.apply(fs, &cfg)

	client, err := newClient(cfg, nil, nil, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, hybrid.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  max(*limit, 0),
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d size=%d best=%.4f worst=%.4f mean=%.4f stddev=%.4f best_value=%q\n",
			d.Generation,
			d.Size,
			d.BestFitness,
			d.WorstFitness,
			d.MeanFitness,
			d.StdDevFitness,
			d.BestValue,
		)
	}
	return nil
}

func runSelections(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("selections", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range hybrid.Selections() {
		fmt.Println(name)
	}
	return nil
}

func newClient(cfg config.Config, logger *slog.Logger, metrics *monitor.Metrics, tracing *tracerHandle) (*hybrid.Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	opts := hybrid.Options{
		StoreKind: cfg.Store.Kind,
		DBPath:    cfg.Store.DBPath,
		Logger:    logger,
		Metrics:   metrics,
	}
	if tracing != nil {
		opts.Tracer = tracing.tracer
	}
	return hybrid.New(opts)
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

type runItem struct {
	RunID       string                        `json:"run_id"`
	Generations int                           `json:"generations"`
	BestValue   string                        `json:"best_value"`
	BestFitness float64                       `json:"best_fitness"`
	Found       bool                          `json:"found"`
	DurationMS  int64                         `json:"duration_ms"`
	Diagnostics []model.GenerationDiagnostics `json:"diagnostics,omitempty"`
}

func summaryItem(s hybrid.RunSummary) runItem {
	return runItem{
		RunID:       s.RunID,
		Generations: s.Generations,
		BestValue:   s.BestValue,
		BestFitness: s.BestFitness,
		Found:       s.Found,
		DurationMS:  s.Duration.Milliseconds(),
		Diagnostics: s.Diagnostics,
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: hybridctl <%s> [flags]", msg, strings.Join([]string{"init", "reset", "run", "runs", "diagnostics", "selections"}, "|"))
}
