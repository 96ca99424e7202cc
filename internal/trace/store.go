// Package trace owns the in-memory run/span/experiment store that records
// every generate/evaluate cycle.
//
// The store is an explicit dependency: construct one per process (or per
// test) and inject it; there is no package-level singleton. All contents
// live for the lifetime of the process: no eviction, no durability. Flush
// ships completed runs to an external collector but the store remains the
// source of truth for the observability API.
//
// Mutations follow a best-effort telemetry policy: appending a span to an
// unknown or ended run and ending an unknown run are silent no-ops, so a
// telemetry mistake can never break the business flow that caused it.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/telemetry"
)

// ErrDuplicateRun is returned by StartRun when the run id is already taken.
// Generated ids are UUID-based, so a collision means a caller bug.
var ErrDuplicateRun = errors.New("trace: run already exists")

// Exporter ships a finished run to an external telemetry backend.
// Implementations must be safe for concurrent use.
type Exporter interface {
	ExportRun(ctx context.Context, run model.Run) error
}

// Store holds all runs and experiments for the process lifetime.
type Store struct {
	logger   *slog.Logger
	exporter Exporter // nil = flush is a no-op

	mu          sync.RWMutex
	runs        map[string]*model.Run
	runOrder    []string
	experiments map[string]*model.Experiment
	expOrder    []string
	pending     []string // ended runs not yet exported
}

// NewStore creates an empty store. exporter may be nil to disable export.
func NewStore(logger *slog.Logger, exporter Exporter) *Store {
	return &Store{
		logger:      logger,
		exporter:    exporter,
		runs:        make(map[string]*model.Run),
		experiments: make(map[string]*model.Experiment),
	}
}

// StartRun creates a run in the running state with no spans.
func (s *Store) StartRun(runID string, metadata map[string]any) (model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; exists {
		return model.Run{}, fmt.Errorf("%w: %s", ErrDuplicateRun, runID)
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	run := &model.Run{
		ID:        runID,
		Metadata:  metadata,
		StartTime: time.Now().UTC(),
		Status:    model.RunStatusRunning,
		Spans:     []model.Span{},
	}
	s.runs[runID] = run
	s.runOrder = append(s.runOrder, runID)
	return copyRun(run), nil
}

// AddSpan appends a span to a running run. Unknown or already-ended runs are
// a silent no-op: telemetry must never block the operation it observes.
func (s *Store) AddSpan(runID, name string, input, output, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok || run.Status != model.RunStatusRunning {
		return
	}

	run.Spans = append(run.Spans, model.Span{
		Name:      name,
		StartTime: time.Now().UTC(),
		Input:     input,
		Output:    output,
		Metadata:  metadata,
	})
}

// EndRun transitions a run to completed, records its result and queues it
// for export. Returns false if the run is unknown or already ended.
func (s *Store) EndRun(runID string, result map[string]any) (model.Run, bool) {
	return s.endRun(runID, model.RunStatusCompleted, result)
}

// FailRun transitions a run to failed, recording the error. Intended for
// the orchestrator's cleanup path so aborted requests don't leave runs
// stuck in the running state forever.
func (s *Store) FailRun(runID string, cause error) (model.Run, bool) {
	result := map[string]any{}
	if cause != nil {
		result["error"] = cause.Error()
	}
	return s.endRun(runID, model.RunStatusFailed, result)
}

func (s *Store) endRun(runID string, status model.RunStatus, result map[string]any) (model.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok || run.Status != model.RunStatusRunning {
		return model.Run{}, false
	}

	now := time.Now().UTC()
	run.Status = status
	run.EndTime = &now
	run.Result = result
	s.pending = append(s.pending, runID)
	return copyRun(run), true
}

// CreateExperiment creates and stores a named experiment with no runs.
func (s *Store) CreateExperiment(id, name, description string) model.Experiment {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp := &model.Experiment{
		ID:          id,
		Name:        name,
		Description: description,
		RunIDs:      []string{},
		CreatedAt:   time.Now().UTC(),
	}
	s.experiments[id] = exp
	s.expOrder = append(s.expOrder, id)
	return copyExperiment(exp)
}

// AddRunToExperiment links a run to an experiment. No-op if the experiment
// is unknown. The link is by id; the store keeps owning the run.
func (s *Store) AddRunToExperiment(experimentID, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.experiments[experimentID]
	if !ok {
		return
	}
	exp.RunIDs = append(exp.RunIDs, runID)
}

// GetRun returns a copy of the run, if present.
func (s *Store) GetRun(runID string) (model.Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return model.Run{}, false
	}
	return copyRun(run), true
}

// GetExperiment returns a copy of the experiment, if present.
func (s *Store) GetExperiment(experimentID string) (model.Experiment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.experiments[experimentID]
	if !ok {
		return model.Experiment{}, false
	}
	return copyExperiment(exp), true
}

// GetAllRuns returns all runs in insertion order.
func (s *Store) GetAllRuns() []model.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.Run, 0, len(s.runOrder))
	for _, id := range s.runOrder {
		runs = append(runs, copyRun(s.runs[id]))
	}
	return runs
}

// GetAllExperiments returns all experiments in insertion order.
func (s *Store) GetAllExperiments() []model.Experiment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exps := make([]model.Experiment, 0, len(s.expOrder))
	for _, id := range s.expOrder {
		exps = append(exps, copyExperiment(s.experiments[id]))
	}
	return exps
}

// RunCount returns the number of runs tracked by the store.
func (s *Store) RunCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Flush exports every run that ended since the previous flush. Export
// failures are logged and the first one is returned so callers can decide
// whether to log again; by policy they must never fail the user-facing
// request over it.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	exporter := s.exporter
	s.mu.Unlock()

	if exporter == nil || len(batch) == 0 {
		return nil
	}

	var firstErr error
	exported := 0
	for _, id := range batch {
		run, ok := s.GetRun(id)
		if !ok {
			continue
		}
		if err := exporter.ExportRun(ctx, run); err != nil {
			s.logger.Error("trace: export failed", "run_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		exported++
	}

	if exported > 0 {
		s.logger.Debug("trace: flushed", "exported", exported, "batch", len(batch))
	}
	return firstErr
}

// Metrics computes the dashboard aggregates over all runs and experiments.
func (s *Store) Metrics() model.DashboardMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := model.DashboardMetrics{
		TotalRuns:        len(s.runOrder),
		TotalExperiments: len(s.expOrder),
	}

	var qualitySum float64
	for _, id := range s.runOrder {
		run := s.runs[id]
		switch run.Status {
		case model.RunStatusCompleted:
			m.CompletedRuns++
		case model.RunStatusFailed:
			m.FailedRuns++
		}
		m.TotalSpans += len(run.Spans)
		qualitySum += qualityScore(run.Result)
	}
	if m.TotalRuns > 0 {
		m.AvgQualityScore = math.Round(qualitySum/float64(m.TotalRuns)*100) / 100
	}
	return m
}

// RecentRuns returns summaries of the most recent n runs, oldest first.
func (s *Store) RecentRuns(n int) []model.RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.runOrder) - n
	if start < 0 {
		start = 0
	}
	summaries := make([]model.RunSummary, 0, len(s.runOrder)-start)
	for _, id := range s.runOrder[start:] {
		run := s.runs[id]
		summaries = append(summaries, model.RunSummary{
			ID:           run.ID,
			Status:       run.Status,
			Type:         metadataType(run.Metadata),
			QualityScore: qualityScore(run.Result),
			DurationMS:   run.Duration().Milliseconds(),
			Timestamp:    run.StartTime,
		})
	}
	return summaries
}

// RecentExperiments returns summaries of the most recent n experiments,
// oldest first.
func (s *Store) RecentExperiments(n int) []model.ExperimentSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.expOrder) - n
	if start < 0 {
		start = 0
	}
	summaries := make([]model.ExperimentSummary, 0, len(s.expOrder)-start)
	for _, id := range s.expOrder[start:] {
		exp := s.experiments[id]
		summaries = append(summaries, model.ExperimentSummary{
			ID:        exp.ID,
			Name:      exp.Name,
			RunsCount: len(exp.RunIDs),
			CreatedAt: exp.CreatedAt,
		})
	}
	return summaries
}

// RegisterMetrics registers observable OTEL gauges for store growth.
// The store never evicts, so operators watch these for unbounded growth.
func (s *Store) RegisterMetrics() {
	meter := telemetry.Meter("wellspring/trace")

	_, _ = meter.Int64ObservableGauge("wellspring.trace.runs",
		metric.WithDescription("Total runs held by the in-memory trace store"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(s.RunCount()))
			return nil
		}),
	)

	_, _ = meter.Int64ObservableGauge("wellspring.trace.pending_export",
		metric.WithDescription("Ended runs waiting for the next flush"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			s.mu.RLock()
			n := len(s.pending)
			s.mu.RUnlock()
			o.Observe(int64(n))
			return nil
		}),
	)
}

// copyRun returns a shallow copy with its own span slice, so callers can
// iterate spans without holding the store lock. Bag maps are shared;
// callers must treat them as read-only.
func copyRun(run *model.Run) model.Run {
	out := *run
	out.Spans = make([]model.Span, len(run.Spans))
	copy(out.Spans, run.Spans)
	return out
}

func copyExperiment(exp *model.Experiment) model.Experiment {
	out := *exp
	out.RunIDs = make([]string, len(exp.RunIDs))
	copy(out.RunIDs, exp.RunIDs)
	return out
}

// qualityScore reads result["quality_score"], tolerating the numeric types
// that reach the bag directly (int) or via JSON round-trips (float64).
func qualityScore(result map[string]any) float64 {
	if result == nil {
		return 0
	}
	switch v := result["quality_score"].(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func metadataType(metadata map[string]any) string {
	if t, ok := metadata["type"].(string); ok {
		return t
	}
	return ""
}
