package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

type memoryHistory struct {
	mu              sync.Mutex
	recommendations []storage.StoredRecommendation
}

func (m *memoryHistory) SaveRecommendation(_ context.Context, rec storage.StoredRecommendation) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recommendations = append(m.recommendations, rec)
	return fmt.Sprintf("rec-%d", len(m.recommendations)), nil
}

func (m *memoryHistory) SaveExperiment(context.Context, storage.StoredExperiment) (string, error) {
	return "", nil
}

func (m *memoryHistory) RecentRecommendations(_ context.Context, limit int) ([]storage.StoredRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.recommendations) > limit {
		return m.recommendations[:limit], nil
	}
	return m.recommendations, nil
}

func (m *memoryHistory) RecommendationsByUser(_ context.Context, userID string) ([]storage.StoredRecommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.StoredRecommendation
	for _, rec := range m.recommendations {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memoryHistory) Ping(context.Context) error { return nil }
func (m *memoryHistory) Close()                     {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestServer builds a server over a trace store holding one completed run
// and one experiment linking it.
func newTestServer(t *testing.T, history storage.Store) (*Server, *trace.Store) {
	t.Helper()
	traces := trace.NewStore(testLogger(), nil)

	_, err := traces.StartRun("run-abc", map[string]any{"type": "workout"})
	require.NoError(t, err)
	traces.AddSpan("run-abc", "generate_recommendation",
		map[string]any{"recommendation_type": "workout"},
		map[string]any{"title": "Morning Flow"},
		nil,
	)
	_, ok := traces.EndRun("run-abc", map[string]any{"quality_score": 80})
	require.True(t, ok)

	traces.CreateExperiment("exp-1", "workout variants", "Comparing 1 variants of workout recommendations")
	traces.AddRunToExperiment("exp-1", "run-abc")

	return New(traces, history, testLogger(), "test"), traces
}

func callRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// parseToolText extracts the first TextContent text from a CallToolResult.
func parseToolText(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no TextContent found in tool result")
	return ""
}

func TestGetRun(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleGetRun(context.Background(), callRequest("wellspring_get_run", map[string]any{
		"run_id": "run-abc",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Run model.Run `json:"run"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, "run-abc", body.Run.ID)
	assert.Equal(t, model.RunStatusCompleted, body.Run.Status)
	require.Len(t, body.Run.Spans, 1)
	assert.Equal(t, "generate_recommendation", body.Run.Spans[0].Name)
}

func TestGetRunNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleGetRun(context.Background(), callRequest("wellspring_get_run", map[string]any{
		"run_id": "run-missing",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "run not found")
}

func TestGetRunMissingArgument(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleGetRun(context.Background(), callRequest("wellspring_get_run", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetExperiment(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleGetExperiment(context.Background(), callRequest("wellspring_get_experiment", map[string]any{
		"experiment_id": "exp-1",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Experiment model.Experiment `json:"experiment"`
		Runs       []model.Run      `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Equal(t, "exp-1", body.Experiment.ID)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-abc", body.Runs[0].ID)
}

func TestGetExperimentNotFound(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleGetExperiment(context.Background(), callRequest("wellspring_get_experiment", map[string]any{
		"experiment_id": "exp-missing",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleDashboard(context.Background(), callRequest("wellspring_dashboard", nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var dash model.Dashboard
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &dash))
	assert.True(t, dash.Success)
	assert.Equal(t, 1, dash.Metrics.TotalRuns)
	assert.Equal(t, 1, dash.Metrics.TotalExperiments)
	require.Len(t, dash.RecentRuns, 1)
}

func TestRecentRecommendations(t *testing.T) {
	history := &memoryHistory{}
	for i, user := range []string{"user-1", "user-2", "user-1"} {
		_, err := history.SaveRecommendation(context.Background(), storage.StoredRecommendation{
			UserID:             user,
			RecommendationType: string(model.RecommendationWorkout),
			Recommendation:     model.Recommendation{Title: fmt.Sprintf("Rec %d", i)},
		})
		require.NoError(t, err)
	}
	srv, _ := newTestServer(t, history)

	result, err := srv.handleRecentRecommendations(context.Background(),
		callRequest("wellspring_recent_recommendations", map[string]any{}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var body struct {
		Recommendations []storage.StoredRecommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Len(t, body.Recommendations, 3)

	// user_id narrows the listing.
	result, err = srv.handleRecentRecommendations(context.Background(),
		callRequest("wellspring_recent_recommendations", map[string]any{"user_id": "user-1"}))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(parseToolText(t, result)), &body))
	assert.Len(t, body.Recommendations, 2)
}

func TestRecentRecommendationsHistoryDisabled(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	result, err := srv.handleRecentRecommendations(context.Background(),
		callRequest("wellspring_recent_recommendations", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, parseToolText(t, result), "disabled")
}

func TestRunsRecentResource(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	contents, err := srv.handleRunsRecent(context.Background(), mcplib.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "wellspring://runs/recent", text.URI)

	var body struct {
		Runs []model.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "run-abc", body.Runs[0].ID)
}
