// Package mcp implements the Model Context Protocol server for wellspring.
//
// The MCP server exposes the observability and history surface through MCP
// resources and tools, so MCP-compatible AI agents can inspect runs,
// experiments, and saved recommendations without going through the HTTP API.
// All tools are read-only; generation stays HTTP-only.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/wellspring-ai/wellspring/internal/model"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

const recentWindow = 20

// Server wraps the MCP server with wellspring's trace and history stores.
type Server struct {
	mcpServer *mcpserver.MCPServer
	traces    *trace.Store
	history   storage.Store // nil = history disabled
	logger    *slog.Logger
}

// New creates and configures an MCP server with all resources and tools.
func New(traces *trace.Store, history storage.Store, logger *slog.Logger, version string) *Server {
	s := &Server{
		traces:  traces,
		history: history,
		logger:  logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"wellspring",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

func (s *Server) registerResources() {
	// wellspring://runs/recent: latest recommendation runs.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"wellspring://runs/recent",
			"Recent Runs",
			mcplib.WithResourceDescription("The most recent recommendation runs with status and quality scores"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRunsRecent,
	)

	// wellspring://experiments/recent: latest variant experiments.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"wellspring://experiments/recent",
			"Recent Experiments",
			mcplib.WithResourceDescription("The most recent variant experiments with their run counts"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleExperimentsRecent,
	)
}

func (s *Server) handleRunsRecent(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(map[string]any{
		"runs": s.traces.RecentRuns(recentWindow),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal runs: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "wellspring://runs/recent",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleExperimentsRecent(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(map[string]any{
		"experiments": s.traces.RecentExperiments(recentWindow),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal experiments: %w", err)
	}

	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      "wellspring://experiments/recent",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// jsonResult marshals v into a single TextContent tool result.
func jsonResult(v any) *mcplib.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %v", err))
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

// dashboard assembles the same payload as GET /v1/observability.
func (s *Server) dashboard() model.Dashboard {
	return model.Dashboard{
		Success:           true,
		Metrics:           s.traces.Metrics(),
		RecentRuns:        s.traces.RecentRuns(5),
		RecentExperiments: s.traces.RecentExperiments(5),
	}
}
