package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wellspring-ai/wellspring/api"
	"github.com/wellspring-ai/wellspring/internal/config"
	"github.com/wellspring-ai/wellspring/internal/llm"
	"github.com/wellspring-ai/wellspring/internal/mcp"
	"github.com/wellspring-ai/wellspring/internal/ratelimit"
	"github.com/wellspring-ai/wellspring/internal/server"
	"github.com/wellspring-ai/wellspring/internal/service/engine"
	"github.com/wellspring-ai/wellspring/internal/service/judge"
	"github.com/wellspring-ai/wellspring/internal/service/recommend"
	"github.com/wellspring-ai/wellspring/internal/storage"
	"github.com/wellspring-ai/wellspring/internal/telemetry"
	"github.com/wellspring-ai/wellspring/internal/trace"
	"github.com/wellspring-ai/wellspring/migrations"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelInfo
	if os.Getenv("WELLSPRING_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("wellspring starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Trace store. Exported runs become OTEL spans when an endpoint is set.
	var exporter trace.Exporter
	if cfg.OTELEndpoint != "" {
		exporter = trace.NewOTELExporter()
	}
	traces := trace.NewStore(logger, exporter)
	traces.RegisterMetrics()

	// History store (optional).
	history, err := newHistoryStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
	}

	// LLM client.
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, generation will fall back to defaults")
	}
	client := llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey)

	// Services (shared by HTTP and MCP handlers).
	svc := recommend.New(
		engine.New(client, logger),
		judge.New(client, logger),
		traces,
		history,
		logger,
	)

	mcpSrv := mcp.New(traces, history, logger, version)

	// Rate limiter for the generate endpoints.
	var limiter ratelimit.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer func() { _ = limiter.Close() }()
		logger.Info("rate limiting: memory (in-process token bucket)",
			"rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		limiter = ratelimit.NoopLimiter{}
		logger.Info("rate limiting: disabled")
	}

	// Create and start HTTP server (MCP mounted at /mcp).
	srv := server.New(server.Config{
		RecommendSvc:        svc,
		Traces:              traces,
		Logger:              logger,
		History:             history,
		Limiter:             limiter,
		MCPServer:           mcpSrv.MCPServer(),
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		OpenAPISpec:         api.OpenAPISpec,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	// Graceful shutdown: stop accepting requests and drain in-flight ones,
	// then flush any pending trace exports.
	slog.Info("wellspring shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	httpCancel()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := traces.Flush(flushCtx); err != nil {
		slog.Warn("trace flush failed", "error", err)
	}
	flushCancel()

	slog.Info("wellspring stopped")
	return nil
}

// newHistoryStore creates the persistence backend selected by
// WELLSPRING_HISTORY_BACKEND. A nil store (backend "none") disables the
// history API; generation still works.
func newHistoryStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.HistoryBackend {
	case "postgres":
		pg, err := storage.NewPostgres(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		if err := pg.RunMigrations(ctx, migrations.FS); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		logger.Info("history store: postgres")
		return pg, nil

	case "sqlite":
		lite, err := storage.NewSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		logger.Info("history store: sqlite", "path", cfg.SQLitePath)
		return lite, nil

	default: // "none", validated in config.Load
		logger.Info("history store: disabled")
		return nil, nil
	}
}
