//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "hybrid.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second"} {
		require.NoError(t, store.SaveRun(ctx, model.RunRecord{
			VersionedRecord: Versioned(),
			ID:              id,
			Problem:         "word",
			Generations:     i + 1,
			StartedAt:       base.Add(time.Duration(i) * time.Hour),
			Status:          model.RunStatusCompleted,
		}))
	}

	run, ok, err := store.GetRun(ctx, "second")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, run.Generations)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "second", runs[0].ID)

	run.Status = model.RunStatusFailed
	require.NoError(t, store.SaveRun(ctx, run))
	updated, _, err := store.GetRun(ctx, "second")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, updated.Status)
}

func TestSQLiteStoreDiagnosticsAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	require.NoError(t, store.SaveRun(ctx, model.RunRecord{VersionedRecord: Versioned(), ID: "run-1"}))
	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, Size: 4, BestFitness: 2, MeanFitness: 1},
		{Generation: 2, Size: 4, BestFitness: 3, MeanFitness: 2},
	}
	require.NoError(t, store.SaveGenerationDiagnostics(ctx, "run-1", diagnostics))

	loaded, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diagnostics, loaded)

	require.NoError(t, store.DeleteRun(ctx, "run-1"))
	_, ok, err = store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.GetGenerationDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	_, _, err := NewSQLiteStore("unused.db").GetRun(context.Background(), "x")
	assert.Error(t, err)
}
