package trace_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

func newTestStore() *trace.Store {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return trace.NewStore(logger, nil)
}

// recordingExporter captures exported runs and optionally fails.
type recordingExporter struct {
	runs    []model.Run
	failIDs map[string]bool
}

func (e *recordingExporter) ExportRun(_ context.Context, run model.Run) error {
	if e.failIDs[run.ID] {
		return errors.New("export refused")
	}
	e.runs = append(e.runs, run)
	return nil
}

func TestStartRun(t *testing.T) {
	store := newTestStore()

	run, err := store.StartRun("run-1", map[string]any{"type": "workout"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Empty(t, run.Spans)
	assert.Nil(t, run.EndTime)
	assert.False(t, run.StartTime.IsZero())

	got, ok := store.GetRun("run-1")
	require.True(t, ok)
	assert.Equal(t, model.RunStatusRunning, got.Status)
	assert.Empty(t, got.Spans)
}

func TestStartRunDuplicate(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)

	_, err = store.StartRun("run-1", map[string]any{"type": "sleep"})
	require.Error(t, err)
	assert.ErrorIs(t, err, trace.ErrDuplicateRun)

	// The original run is untouched.
	got, ok := store.GetRun("run-1")
	require.True(t, ok)
	assert.Equal(t, model.RunStatusRunning, got.Status)
}

func TestAddSpan(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)

	store.AddSpan("run-1", "generate_recommendation",
		map[string]any{"recommendation_type": "workout"},
		map[string]any{"title": "Morning Strength"},
		map[string]any{"duration_ms": 1200},
	)
	store.AddSpan("run-1", "evaluate_recommendation", nil, nil, nil)

	got, ok := store.GetRun("run-1")
	require.True(t, ok)
	require.Len(t, got.Spans, 2)
	assert.Equal(t, "generate_recommendation", got.Spans[0].Name)
	assert.Equal(t, "evaluate_recommendation", got.Spans[1].Name)
	assert.Equal(t, "Morning Strength", got.Spans[0].Output["title"])
}

func TestAddSpanUnknownRunIsNoop(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)

	store.AddSpan("no-such-run", "generate_recommendation", nil, nil, nil)

	runs := store.GetAllRuns()
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].Spans)
}

func TestAddSpanAfterEndIsNoop(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)
	_, ok := store.EndRun("run-1", nil)
	require.True(t, ok)

	store.AddSpan("run-1", "late_span", nil, nil, nil)

	got, _ := store.GetRun("run-1")
	assert.Empty(t, got.Spans)
}

func TestEndRun(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)
	store.AddSpan("run-1", "generate_recommendation", nil, nil, nil)
	store.AddSpan("run-1", "evaluate_recommendation", nil, nil, nil)

	ended, ok := store.EndRun("run-1", map[string]any{"quality_score": 42})
	require.True(t, ok)
	assert.Equal(t, model.RunStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)
	assert.False(t, ended.EndTime.Before(ended.StartTime))
	assert.Equal(t, 42, ended.Result["quality_score"])
	assert.Len(t, ended.Spans, 2)

	// Ending again is a no-op.
	_, ok = store.EndRun("run-1", map[string]any{"quality_score": 99})
	assert.False(t, ok)
	got, _ := store.GetRun("run-1")
	assert.Equal(t, 42, got.Result["quality_score"])
}

func TestEndRunUnknown(t *testing.T) {
	store := newTestStore()
	_, ok := store.EndRun("no-such-run", nil)
	assert.False(t, ok)
}

func TestFailRun(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)

	failed, ok := store.FailRun("run-1", errors.New("generator exploded"))
	require.True(t, ok)
	assert.Equal(t, model.RunStatusFailed, failed.Status)
	assert.Equal(t, "generator exploded", failed.Result["error"])
	require.NotNil(t, failed.EndTime)
}

func TestGetAllRunsInsertionOrder(t *testing.T) {
	store := newTestStore()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		_, err := store.StartRun(id, nil)
		require.NoError(t, err)
	}

	runs := store.GetAllRuns()
	require.Len(t, runs, 3)
	assert.Equal(t, "run-a", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
	assert.Equal(t, "run-c", runs[2].ID)
}

func TestGetRunReturnsCopy(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)
	store.AddSpan("run-1", "first", nil, nil, nil)

	got, _ := store.GetRun("run-1")
	got.Spans[0].Name = "mutated"
	got.Spans = append(got.Spans, model.Span{Name: "extra"})

	fresh, _ := store.GetRun("run-1")
	require.Len(t, fresh.Spans, 1)
	assert.Equal(t, "first", fresh.Spans[0].Name)
}

func TestExperiments(t *testing.T) {
	store := newTestStore()

	exp := store.CreateExperiment("exp-1", "workout-variants", "3-way comparison")
	assert.Equal(t, "exp-1", exp.ID)
	assert.Empty(t, exp.RunIDs)
	assert.False(t, exp.CreatedAt.IsZero())

	store.AddRunToExperiment("exp-1", "run-a")
	store.AddRunToExperiment("exp-1", "run-b")
	store.AddRunToExperiment("no-such-exp", "run-c")

	got, ok := store.GetExperiment("exp-1")
	require.True(t, ok)
	assert.Equal(t, []string{"run-a", "run-b"}, got.RunIDs)

	_, ok = store.GetExperiment("no-such-exp")
	assert.False(t, ok)

	all := store.GetAllExperiments()
	require.Len(t, all, 1)
	assert.Equal(t, "exp-1", all[0].ID)
}

func TestFlush(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	exporter := &recordingExporter{}
	store := trace.NewStore(logger, exporter)

	_, err := store.StartRun("run-1", nil)
	require.NoError(t, err)
	_, err = store.StartRun("run-2", nil)
	require.NoError(t, err)

	_, ok := store.EndRun("run-1", nil)
	require.True(t, ok)

	// run-2 is still running and must not be exported.
	require.NoError(t, store.Flush(context.Background()))
	require.Len(t, exporter.runs, 1)
	assert.Equal(t, "run-1", exporter.runs[0].ID)

	// A second flush has nothing new.
	require.NoError(t, store.Flush(context.Background()))
	assert.Len(t, exporter.runs, 1)

	_, ok = store.EndRun("run-2", nil)
	require.True(t, ok)
	require.NoError(t, store.Flush(context.Background()))
	require.Len(t, exporter.runs, 2)
	assert.Equal(t, "run-2", exporter.runs[1].ID)
}

func TestFlushExportFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	exporter := &recordingExporter{failIDs: map[string]bool{"run-bad": true}}
	store := trace.NewStore(logger, exporter)

	for _, id := range []string{"run-bad", "run-ok"} {
		_, err := store.StartRun(id, nil)
		require.NoError(t, err)
		_, ok := store.EndRun(id, nil)
		require.True(t, ok)
	}

	err := store.Flush(context.Background())
	require.Error(t, err)

	// The failure did not block the healthy run.
	require.Len(t, exporter.runs, 1)
	assert.Equal(t, "run-ok", exporter.runs[0].ID)
}

func TestMetrics(t *testing.T) {
	store := newTestStore()

	_, err := store.StartRun("run-1", map[string]any{"type": "workout"})
	require.NoError(t, err)
	store.AddSpan("run-1", "generate_recommendation", nil, nil, nil)
	store.AddSpan("run-1", "evaluate_recommendation", nil, nil, nil)
	_, ok := store.EndRun("run-1", map[string]any{"quality_score": 80})
	require.True(t, ok)

	_, err = store.StartRun("run-2", map[string]any{"type": "sleep"})
	require.NoError(t, err)
	store.AddSpan("run-2", "generate_recommendation", nil, nil, nil)
	_, ok = store.FailRun("run-2", errors.New("boom"))
	require.True(t, ok)

	_, err = store.StartRun("run-3", nil)
	require.NoError(t, err)

	store.CreateExperiment("exp-1", "exp", "")

	m := store.Metrics()
	assert.Equal(t, 3, m.TotalRuns)
	assert.Equal(t, 1, m.CompletedRuns)
	assert.Equal(t, 1, m.FailedRuns)
	assert.Equal(t, 1, m.TotalExperiments)
	assert.Equal(t, 3, m.TotalSpans)
	// 80 from run-1, 0 from the other two.
	assert.InDelta(t, 26.67, m.AvgQualityScore, 0.001)
}

func TestRecentRuns(t *testing.T) {
	store := newTestStore()

	for _, id := range []string{"run-a", "run-b", "run-c", "run-d"} {
		_, err := store.StartRun(id, map[string]any{"type": "meditation"})
		require.NoError(t, err)
	}
	_, ok := store.EndRun("run-d", map[string]any{"quality_score": 75})
	require.True(t, ok)

	recent := store.RecentRuns(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-c", recent[0].ID)
	assert.Equal(t, "run-d", recent[1].ID)
	assert.Equal(t, model.RunStatusCompleted, recent[1].Status)
	assert.Equal(t, "meditation", recent[1].Type)
	assert.Equal(t, 75.0, recent[1].QualityScore)

	// Asking for more than exist returns everything.
	assert.Len(t, store.RecentRuns(10), 4)
}

func TestRecentExperiments(t *testing.T) {
	store := newTestStore()

	store.CreateExperiment("exp-1", "first", "")
	store.CreateExperiment("exp-2", "second", "")
	store.AddRunToExperiment("exp-2", "run-x")

	recent := store.RecentExperiments(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "exp-2", recent[0].ID)
	assert.Equal(t, 1, recent[0].RunsCount)
}
