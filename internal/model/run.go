// Package model defines the core domain types for Wellspring.
//
// Types fall into three groups: the trace model (runs, spans, experiments),
// the recommendation payloads produced by the generation engines, and the
// evaluation results produced by the LLM judge. Open key-value bags
// (metadata, span input/output, run results) stay map[string]any because
// their shape is caller-defined by design.
package model

import "time"

// RunStatus represents the lifecycle state of a traced run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one end-to-end traced operation: a generate/evaluate cycle for a
// single recommendation, or one variant of an experiment.
//
// Spans may only be appended while Status is running. EndTime is set exactly
// once, on the transition to completed or failed.
type Run struct {
	ID        string         `json:"id"`
	Metadata  map[string]any `json:"metadata"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Status    RunStatus      `json:"status"`
	Spans     []Span         `json:"spans"`
	Result    map[string]any `json:"result,omitempty"`
}

// Duration returns the run's wall-clock duration. For a still-running run
// it measures from StartTime to now.
func (r Run) Duration() time.Duration {
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// Span is one traced sub-operation inside a run. Write-once: spans carry no
// end time of their own; externally measured durations go in Metadata
// (conventionally under "duration_ms").
type Span struct {
	Name      string         `json:"name"`
	StartTime time.Time      `json:"start_time"`
	Input     map[string]any `json:"input"`
	Output    map[string]any `json:"output"`
	Metadata  map[string]any `json:"metadata"`
}

// Experiment is a named comparison of variant runs. It links runs by ID;
// the runs themselves are owned by the trace store. The run list only grows.
type Experiment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RunIDs      []string  `json:"run_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
