package mcp

import (
	"context"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	// wellspring_get_run: inspect a single recommendation run.
	s.mcpServer.AddTool(
		mcplib.NewTool("wellspring_get_run",
			mcplib.WithDescription(`Fetch a single recommendation run with its full span timeline.

WHEN TO USE: When you have a run ID (from a recommendation response or the
dashboard) and want to see exactly what happened: every span, its input and
output, the run result, and the final status.

Run IDs look like "run-<uuid>", "run-nutrition-<uuid>", or
"variant-<experiment-id>-<n>" for experiment variants.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("run_id",
				mcplib.Description("The run identifier to fetch"),
				mcplib.Required(),
			),
		),
		s.handleGetRun,
	)

	// wellspring_get_experiment: inspect a variant experiment.
	s.mcpServer.AddTool(
		mcplib.NewTool("wellspring_get_experiment",
			mcplib.WithDescription(`Fetch a variant experiment and the runs it compared.

WHEN TO USE: When you have an experiment ID (from an experiment response or
the dashboard) and want the variant runs behind the winner selection. Each
linked run carries its variant's scores in the run result.

Experiment IDs look like "exp-<uuid>".`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("experiment_id",
				mcplib.Description("The experiment identifier to fetch"),
				mcplib.Required(),
			),
		),
		s.handleGetExperiment,
	)

	// wellspring_dashboard: aggregate observability snapshot.
	s.mcpServer.AddTool(
		mcplib.NewTool("wellspring_dashboard",
			mcplib.WithDescription(`Get the observability dashboard: aggregate run metrics plus the
most recent runs and experiments.

WHEN TO USE: As a starting point. The dashboard gives you run counts, the
average quality score, and recent run/experiment IDs you can drill into with
wellspring_get_run and wellspring_get_experiment.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
		),
		s.handleDashboard,
	)

	// wellspring_recent_recommendations: saved recommendation history.
	s.mcpServer.AddTool(
		mcplib.NewTool("wellspring_recent_recommendations",
			mcplib.WithDescription(`List recently saved recommendations from the history store.

WHEN TO USE: To see what was actually delivered to users, with the stored
evaluation verdicts (safety score, PII flag, compliance issues). Unlike the
trace store, history survives restarts.

Pass user_id to narrow to one user's saved recommendations.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(false),
			mcplib.WithString("user_id",
				mcplib.Description("Optional: only recommendations saved for this user"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum results to return"),
				mcplib.Min(1),
				mcplib.Max(100),
				mcplib.DefaultNumber(10),
			),
		),
		s.handleRecentRecommendations,
	)
}

func (s *Server) handleGetRun(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	runID := request.GetString("run_id", "")
	if runID == "" {
		return errorResult("run_id is required"), nil
	}

	run, ok := s.traces.GetRun(runID)
	if !ok {
		return errorResult(fmt.Sprintf("run not found: %s", runID)), nil
	}
	return jsonResult(map[string]any{"run": run}), nil
}

func (s *Server) handleGetExperiment(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	experimentID := request.GetString("experiment_id", "")
	if experimentID == "" {
		return errorResult("experiment_id is required"), nil
	}

	exp, ok := s.traces.GetExperiment(experimentID)
	if !ok {
		return errorResult(fmt.Sprintf("experiment not found: %s", experimentID)), nil
	}

	// Attach the variant runs so callers see the scores without a second call.
	runs := make([]any, 0, len(exp.RunIDs))
	for _, runID := range exp.RunIDs {
		if run, ok := s.traces.GetRun(runID); ok {
			runs = append(runs, run)
		}
	}

	return jsonResult(map[string]any{
		"experiment": exp,
		"runs":       runs,
	}), nil
}

func (s *Server) handleDashboard(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return jsonResult(s.dashboard()), nil
}

func (s *Server) handleRecentRecommendations(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.history == nil {
		return errorResult("history store is disabled"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit < 1 || limit > 100 {
		return errorResult("limit must be between 1 and 100"), nil
	}

	if userID := request.GetString("user_id", ""); userID != "" {
		records, err := s.history.RecommendationsByUser(ctx, userID)
		if err != nil {
			s.logger.Error("mcp: history query failed", "user_id", userID, "error", err)
			return errorResult(fmt.Sprintf("history query failed: %v", err)), nil
		}
		if len(records) > limit {
			records = records[:limit]
		}
		return jsonResult(map[string]any{"recommendations": records}), nil
	}

	records, err := s.history.RecentRecommendations(ctx, limit)
	if err != nil {
		s.logger.Error("mcp: history query failed", "error", err)
		return errorResult(fmt.Sprintf("history query failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"recommendations": records}), nil
}
