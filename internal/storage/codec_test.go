package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hybrid/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	run := model.RunRecord{
		VersionedRecord: Versioned(),
		ID:              "run-1",
		Problem:         "word",
		Selection:       "tournament",
		PopulationSize:  50,
		Generations:     12,
		BestFitness:     11,
		BestValue:       "hello world",
		Status:          model.RunStatusCompleted,
		StartedAt:       started,
		FinishedAt:      started.Add(3 * time.Second),
	}

	data, err := EncodeRun(run)
	require.NoError(t, err)
	decoded, err := DecodeRun(data)
	require.NoError(t, err)
	assert.Equal(t, run.ID, decoded.ID)
	assert.Equal(t, run.BestValue, decoded.BestValue)
	assert.True(t, decoded.StartedAt.Equal(started))
	assert.Equal(t, 3*time.Second, decoded.Duration())
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	data, err := EncodeRun(model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		ID:              "future",
	})
	require.NoError(t, err)

	_, err = DecodeRun(data)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestDecodeRunRejectsGarbage(t *testing.T) {
	_, err := DecodeRun([]byte("{"))
	assert.Error(t, err)
}

func TestGenerationDiagnosticsCodec(t *testing.T) {
	in := []model.GenerationDiagnostics{
		{Generation: 1, Size: 10, BestFitness: 4, WorstFitness: 0, MeanFitness: 2},
		{Generation: 2, Size: 10, BestFitness: 6, WorstFitness: 1, MeanFitness: 3, BestValue: "hel"},
	}
	data, err := EncodeGenerationDiagnostics(in)
	require.NoError(t, err)
	out, err := DecodeGenerationDiagnostics(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
