package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/wellspring-ai/wellspring/internal/ratelimit"
	"github.com/wellspring-ai/wellspring/internal/service/recommend"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/trace"
)

// Server is the wellspring HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Config holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): History, Limiter, MCPServer.
type Config struct {
	// Required dependencies.
	RecommendSvc *recommend.Service
	Traces       *trace.Store
	Logger       *slog.Logger

	// Optional dependencies (nil = disabled).
	History   storage.Store
	Limiter   ratelimit.Limiter
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64

	// OpenAPISpec, when set, is served at GET /openapi.yaml.
	OpenAPISpec []byte
}

// New creates a new HTTP server with all routes configured.
func New(cfg Config) *Server {
	h := &Handlers{
		svc:       cfg.RecommendSvc,
		traces:    cfg.Traces,
		history:   cfg.History,
		logger:    cfg.Logger,
		version:   cfg.Version,
		maxBody:   cfg.MaxRequestBodyBytes,
		startedAt: time.Now().UTC(),
	}

	// Every generate endpoint fans out into paid LLM calls, so they share
	// one per-IP limit.
	generateRL := ratelimit.Middleware(cfg.Limiter, ratelimit.IPKeyFunc, cfg.Logger)

	mux := http.NewServeMux()

	// Generation endpoints (rate limited by IP).
	mux.Handle("POST /v1/recommend", generateRL(http.HandlerFunc(h.HandleRecommend)))
	mux.Handle("POST /v1/experiment", generateRL(http.HandlerFunc(h.HandleExperiment)))
	mux.Handle("POST /v1/nutrition", generateRL(http.HandlerFunc(h.HandleNutrition)))
	mux.Handle("POST /v1/medical", generateRL(http.HandlerFunc(h.HandleMedical)))
	mux.Handle("POST /v1/mindfulness", generateRL(http.HandlerFunc(h.HandleMindfulness)))
	mux.Handle("POST /v1/exercise", generateRL(http.HandlerFunc(h.HandleExercise)))

	// Observability endpoints (read-only, no rate limit).
	mux.HandleFunc("GET /v1/observability", h.HandleObservability)
	mux.HandleFunc("GET /v1/history", h.HandleHistory)

	// MCP StreamableHTTP transport.
	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	// Health (no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	if len(cfg.OpenAPISpec) > 0 {
		mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(cfg.OpenAPISpec)
		})
	}

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
