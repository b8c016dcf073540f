package hybrid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"hybrid/internal/config"
	"hybrid/internal/evo"
	"hybrid/internal/model"
	"hybrid/internal/monitor"
)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.StoreKind == "" {
		opts.StoreKind = "memory"
	}
	client, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func smallConfig() config.Config {
	cfg := config.Defaults()
	cfg.Sample.Target = "hi"
	cfg.Population.Size = 20
	cfg.Selection.Name = "tournament"
	cfg.Selection.Rate = 0.2
	cfg.Crossover.Probability = 0.6
	cfg.Mutation.Probability = 0.3
	cfg.Elitism.Size = 2
	cfg.Stop.Generations = 40
	cfg.Engine.Seed = 7
	return cfg
}

func TestRunRecordsHistory(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig()})
	require.NoError(t, err)

	_, err = uuid.Parse(summary.RunID)
	require.NoError(t, err)
	assert.Positive(t, summary.Generations)
	assert.LessOrEqual(t, summary.Generations, 40)
	assert.Len(t, summary.BestValue, 2)
	assert.Equal(t, summary.BestValue == "hi", summary.Found)
	assert.Len(t, summary.Diagnostics, summary.Generations+1)

	runs, err := client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, summary.RunID, run.ID)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, "word", run.Problem)
	assert.Equal(t, "tournament", run.Selection)
	assert.Equal(t, summary.Generations, run.Generations)
	assert.Equal(t, summary.BestFitness, run.BestFitness)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{Latest: true})
	require.NoError(t, err)
	assert.Equal(t, summary.Diagnostics, diagnostics)
	assert.Equal(t, 0, diagnostics[0].Generation)
	assert.Equal(t, summary.Generations, diagnostics[len(diagnostics)-1].Generation)
}

func TestRunIsDeterministicForSeed(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()

	first, err := client.Run(ctx, RunRequest{Config: smallConfig()})
	require.NoError(t, err)
	second, err := client.Run(ctx, RunRequest{Config: smallConfig()})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Generations, second.Generations)
	assert.Equal(t, first.BestValue, second.BestValue)
	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestRunPacedMode(t *testing.T) {
	client := newTestClient(t, Options{})
	cfg := smallConfig()
	cfg.Engine.Mode = config.ModePaced
	cfg.Engine.Tick = config.Duration(time.Millisecond)
	cfg.Stop.Generations = 5

	summary, err := client.Run(context.Background(), RunRequest{Config: cfg})
	require.NoError(t, err)
	assert.LessOrEqual(t, summary.Generations, 5)
	assert.Len(t, summary.Diagnostics, summary.Generations+1)
}

func TestRunWithQueueScheduler(t *testing.T) {
	client := newTestClient(t, Options{})
	cfg := smallConfig()
	cfg.Sample.Target = "hello world"
	cfg.Stop.Generations = 3

	sched := evo.NewQueueScheduler()
	done := make(chan struct{})
	var summary RunSummary
	var runErr error
	go func() {
		defer close(done)
		summary, runErr = client.Run(context.Background(), RunRequest{Config: cfg, Scheduler: sched})
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-done:
			require.NoError(t, runErr)
			assert.Equal(t, 3, summary.Generations)
			return
		case <-deadline:
			t.Fatal("run did not finish")
		default:
			sched.RunPending()
			time.Sleep(time.Millisecond)
		}
	}
}

func TestRunCancelledIsRecorded(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig()})
	require.ErrorIs(t, err, context.Canceled)

	run, ok, err := client.store.GetRun(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RunStatusCancelled, run.Status)
	assert.NotEmpty(t, run.Error)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	client := newTestClient(t, Options{})

	cfg := smallConfig()
	cfg.Selection.Name = "roulette"
	_, err := client.Run(context.Background(), RunRequest{Config: cfg})
	require.ErrorIs(t, err, evo.ErrConfiguration)

	cfg = smallConfig()
	cfg.Sample.Target = "Hi!"
	_, err = client.Run(context.Background(), RunRequest{Config: cfg})
	require.ErrorIs(t, err, evo.ErrConfiguration)

	runs, err := client.Runs(context.Background(), RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunObservability(t *testing.T) {
	metrics, err := monitor.NewMetrics()
	require.NoError(t, err)
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	client := newTestClient(t, Options{Metrics: metrics, Tracer: monitor.Tracer(provider)})
	cfg := smallConfig()
	cfg.Stop.Generations = 2
	cfg.Sample.Target = "hello world"

	summary, err := client.Run(context.Background(), RunRequest{Config: cfg})
	require.NoError(t, err)

	assert.Positive(t, summary.Generations)
	count, err := testutil.GatherAndCount(metrics.Registry(), "hybrid_runs_total", "hybrid_generations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var names []string
	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}
	assert.Contains(t, names, "evolve")
	assert.Contains(t, names, "generation")
}

func TestDiagnosticsRequestValidation(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()

	_, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: "x", Latest: true})
	require.EqualError(t, err, "use either run id or latest")

	_, err = client.Diagnostics(ctx, DiagnosticsRequest{})
	require.EqualError(t, err, "diagnostics requires run id or latest")

	_, err = client.Diagnostics(ctx, DiagnosticsRequest{Latest: true})
	require.EqualError(t, err, "no runs available")

	_, err = client.Diagnostics(ctx, DiagnosticsRequest{RunID: "missing"})
	require.EqualError(t, err, "diagnostics not found for run id: missing")

	summary, err := client.Run(ctx, RunRequest{Config: smallConfig()})
	require.NoError(t, err)
	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, diagnostics, 1)
}

func TestRunsLimitAndReset(t *testing.T) {
	client := newTestClient(t, Options{})
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.Run(ctx, RunRequest{Config: smallConfig()})
		require.NoError(t, err)
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	require.NoError(t, client.Reset(ctx))
	runs, err = client.Runs(ctx, RunsRequest{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	_, err := New(Options{StoreKind: "redis"})
	require.Error(t, err)
}

func TestFacadeAliases(t *testing.T) {
	pop, err := NewPopulation(PopulationOptions[int]{Individuals: []int{3, 1, 2}})
	require.NoError(t, err)
	require.NoError(t, SetElitism(pop, 1))

	engine, err := NewEngine(EngineOptions[int]{
		Population:    pop,
		StopCondition: NewElapsedGeneration[int](1),
	})
	require.NoError(t, err)
	assert.Same(t, pop, engine.Population())

	assert.Equal(t, []string{"ranking", "tournament", "uniform"}, Selections())
	_, err = ResolveSelection("roulette", 0)
	require.True(t, errors.Is(err, evo.ErrSelectionNotFound))
}
