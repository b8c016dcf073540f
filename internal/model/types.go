package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunRecord summarizes one evolution run.
type RunRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	Problem        string    `json:"problem"`
	Selection      string    `json:"selection"`
	Direction      string    `json:"direction"`
	PopulationSize int       `json:"population_size"`
	Seed           int64     `json:"seed"`
	Generations    int       `json:"generations"`
	BestFitness    float64   `json:"best_fitness"`
	BestValue      string    `json:"best_value,omitempty"`
	Status         RunStatus `json:"status"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
}

func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// GenerationDiagnostics is the fitness digest of one generation.
type GenerationDiagnostics struct {
	Generation    int     `json:"generation"`
	Size          int     `json:"size"`
	BestFitness   float64 `json:"best_fitness"`
	WorstFitness  float64 `json:"worst_fitness"`
	MeanFitness   float64 `json:"mean_fitness"`
	StdDevFitness float64 `json:"std_dev_fitness"`
	BestValue     string  `json:"best_value,omitempty"`
}
