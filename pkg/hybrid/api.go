package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hybrid/internal/config"
	"hybrid/internal/evo"
	"hybrid/internal/fitness"
	"hybrid/internal/model"
	"hybrid/internal/monitor"
	"hybrid/internal/sample/word"
	"hybrid/internal/storage"
)

const (
	problemName   = "word"
	defaultDBPath = "hybrid.db"
)

type Options struct {
	StoreKind string
	DBPath    string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics and Tracer are optional.
	Metrics *monitor.Metrics
	Tracer  trace.Tracer
}

type Client struct {
	store   storage.Store
	ready   bool
	logger  *slog.Logger
	metrics *monitor.Metrics
	tracer  trace.Tracer
}

type RunRequest struct {
	Config config.Config
	// Scheduler overrides the scheduler implied by Config.Engine.Mode.
	Scheduler evo.Scheduler
}

type RunSummary struct {
	RunID       string
	Generations int
	BestFitness float64
	BestValue   string
	Found       bool
	Duration    time.Duration
	Diagnostics []model.GenerationDiagnostics
}

type RunsRequest struct {
	Limit int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		store:   store,
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// Reset removes every recorded run.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.ensureStore(ctx); err != nil {
		return err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if err := c.store.DeleteRun(ctx, run.ID); err != nil {
			return fmt.Errorf("delete run %s: %w", run.ID, err)
		}
	}
	return nil
}

// Run evolves words towards Config.Sample.Target and records the run. A run
// that fails or is cancelled is still recorded; its error is returned along
// with the partial summary.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.ensureStore(ctx); err != nil {
		return RunSummary{}, err
	}

	problem, err := word.NewProblem(cfg.Sample.Target)
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: %w", evo.ErrConfiguration, err)
	}
	engine, err := buildEngine(cfg, problem)
	if err != nil {
		return RunSummary{}, err
	}
	sched := req.Scheduler
	if sched == nil && cfg.Engine.Mode == config.ModePaced {
		sched = evo.NewPacedScheduler(time.Duration(cfg.Engine.Tick))
	}

	record := model.RunRecord{
		VersionedRecord: storage.Versioned(),
		ID:              uuid.NewString(),
		Problem:         problemName,
		Selection:       cfg.Selection.Name,
		Direction:       cfg.Fitness.Direction,
		PopulationSize:  cfg.Population.Size,
		Seed:            cfg.Engine.Seed,
		Status:          model.RunStatusRunning,
		StartedAt:       time.Now().UTC(),
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	logger := c.logger.With(slog.String("run_id", record.ID))
	logger.Info("run started",
		slog.String("target", problem.Target),
		slog.Int("population", cfg.Population.Size),
		slog.String("selection", cfg.Selection.Name),
	)

	runCtx := ctx
	var span trace.Span
	if c.tracer != nil {
		runCtx, span = c.tracer.Start(ctx, "evolve", trace.WithAttributes(
			attribute.String("run.id", record.ID),
			attribute.String("run.problem", problemName),
		))
	}

	recorder := monitor.NewRecorder(func(v string) string { return v })
	detachers := []monitor.Detach{
		monitor.AttachLogger(engine, logger),
		recorder.Attach(engine),
	}
	if c.metrics != nil {
		detachers = append(detachers, monitor.AttachMetrics(engine, c.metrics, problemName))
	}
	if span != nil {
		detachers = append(detachers, monitor.AttachTracer(runCtx, engine, c.tracer))
	}

	var runErr error
	if sched != nil {
		runErr = engine.Start(runCtx, sched).Wait()
	} else {
		runErr = engine.Evolve(runCtx)
	}
	for _, detach := range detachers {
		detach()
	}

	pop := engine.Population()
	if pop.Initialized() {
		recorder.Record(pop)
	}

	record.FinishedAt = time.Now().UTC()
	record.Generations = pop.Generation()
	record.Status = statusOf(runErr)
	if best := pop.Best(); best != nil {
		record.BestFitness = best.Score()
		record.BestValue = best.Value
	}
	if runErr != nil {
		record.Error = runErr.Error()
	}

	// The caller's context may be done already; history is written regardless.
	saveCtx := context.WithoutCancel(ctx)
	if err := c.store.SaveRun(saveCtx, record); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("save run: %w", err))
	}
	if err := recorder.Save(saveCtx, c.store, record.ID); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if c.metrics != nil {
		c.metrics.ObserveRun(problemName, record.Status)
	}
	if span != nil {
		if runErr != nil {
			span.RecordError(runErr)
			span.SetStatus(codes.Error, runErr.Error())
		}
		span.SetAttributes(attribute.Int("run.generations", record.Generations))
		span.End()
	}

	summary := RunSummary{
		RunID:       record.ID,
		Generations: record.Generations,
		BestFitness: record.BestFitness,
		BestValue:   record.BestValue,
		Found:       record.BestValue == problem.Target,
		Duration:    record.Duration(),
		Diagnostics: recorder.Diagnostics(),
	}
	logger.Info("run finished",
		slog.String("status", string(record.Status)),
		slog.Int("generations", summary.Generations),
		slog.String("best", summary.BestValue),
		slog.Duration("elapsed", summary.Duration),
	)
	return summary, runErr
}

// Runs lists recorded runs, most recent first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if len(runs) > req.Limit {
		runs = runs[:req.Limit]
	}
	return runs, nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}

	runID := req.RunID
	if req.Latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = runs[0].ID
	}
	if runID == "" {
		return nil, errors.New("diagnostics requires run id or latest")
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	return diagnostics, nil
}

func (c *Client) ensureStore(ctx context.Context) error {
	if c.ready {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.ready = true
	return nil
}

func buildEngine(cfg config.Config, problem word.Problem) (*evo.Engine[string], error) {
	direction, err := fitness.ParseDirection(cfg.Fitness.Direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", evo.ErrConfiguration, err)
	}
	pop, err := evo.NewPopulation(evo.Options[string]{
		Size:        cfg.Population.Size,
		Generation:  cfg.Population.Generation,
		Factory:     problem.Factory,
		Evaluator:   problem.Evaluator,
		Comparator:  fitness.NewComparator(direction),
		Statistics:  evo.SummaryStatistics[string]{},
		ElitismSize: cfg.Elitism.Size,
	})
	if err != nil {
		return nil, err
	}
	selection, err := evo.ResolveSelection(cfg.Selection.Name, cfg.Selection.Rate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", evo.ErrConfiguration, err)
	}

	stop := evo.AnyOf[string]{
		problem.Found,
		evo.NewElapsedGeneration[string](cfg.Stop.Generations),
	}
	if cfg.Stop.FitnessGoal != nil {
		stop = append(stop, evo.FitnessGoal[string]{Goal: *cfg.Stop.FitnessGoal})
	}

	return evo.NewEngine(evo.EngineOptions[string]{
		Population:    pop,
		Seed:          cfg.Engine.Seed,
		Selection:     selection,
		Crossover:     evo.NewCrossover[string](cfg.Crossover.Probability, problem.Crossover),
		Mutation:      evo.NewMutation[string](cfg.Mutation.Probability, problem.Mutation),
		StopCondition: stop,
	})
}

func statusOf(err error) model.RunStatus {
	switch {
	case err == nil:
		return model.RunStatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.RunStatusCancelled
	default:
		return model.RunStatusFailed
	}
}
