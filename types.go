package mltrack

import (
	"fmt"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RunStatus describes the lifecycle state of a run.
type RunStatus string

const (
	// StatusRunning indicates a run that has started and not yet finished.
	StatusRunning RunStatus = "RUNNING"

	// StatusFinished indicates a run that has been marked complete.
	StatusFinished RunStatus = "FINISHED"
)

// Experiment groups related runs under a human-readable name.
type Experiment struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Run is a single execution within an experiment. The run ID namespaces
// everything else in the system: params, metrics, and artifact storage.
type Run struct {
	ID           string    `json:"id"`
	ExperimentID string    `json:"experimentId"`
	Name         string    `json:"name,omitempty"`
	Status       RunStatus `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Param is a logged key-value configuration entry for a run.
type Param struct {
	RunID string `json:"runId"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metric is a logged numeric observation for a run.
type Metric struct {
	RunID     string    `json:"runId"`
	Key       string    `json:"key"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// ID alphabet excludes lookalike characters so IDs stay readable in paths
// and shell commands.
const idAlphabet = "23456789abcdefghijkmnpqrstuvwxyz"

// NewRunID generates a unique run identifier.
// Format: "2025-01-15-run-x7k2m9qp" (date prefix keeps directory listings sorted).
func NewRunID() string {
	return newID("run")
}

// NewExperimentID generates a unique experiment identifier.
func NewExperimentID() string {
	return newID("exp")
}

func newID(kind string) string {
	suffix := nanoid.MustGenerate(idAlphabet, 8)
	return fmt.Sprintf("%s-%s-%s", time.Now().Format("2006-01-02"), kind, suffix)
}
