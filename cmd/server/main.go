// Command server starts the InterviewBuddy HTTP server.
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

	"github.com/google/uuid"

	ai "github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai/gemini"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai/groq"
	httpserver "github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/httpserver"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/config"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/observability"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/service/ratelimiter"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg).With(slog.String("instance_id", uuid.NewString()))
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so /metrics exposes
	// HTTP, provider, cache, and rate-limit instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Per-provider rate-limit ceilings and default models, env defaults
	// optionally overridden by PROVIDERS_FILE.
	table, err := cfg.ProviderTable()
	if err != nil {
		slog.Error("provider table load failed", slog.Any("error", err))
		os.Exit(1)
	}

	ceilings := make(map[string]ratelimiter.Ceiling, len(table))
	defaultModels := make(map[string]string, len(table))
	for name, ps := range table {
		ceilings[name] = ratelimiter.Ceiling{PerMinute: ps.PerMinute, PerHour: ps.PerHour}
		defaultModels[name] = ps.DefaultModel
	}
	limiter := ratelimiter.New(ceilings)

	// Provider adapters share one prompt builder so token budgeting is
	// consistent across backends.
	prompts := ai.NewPromptBuilder(cfg.PromptTokenBudget)
	registry := ai.NewRegistry()
	if cfg.GroqAPIKey != "" {
		registry.Register(groq.New(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.ProviderTimeout, prompts))
	} else {
		slog.Warn("groq adapter not registered", slog.String("reason", "GROQ_API_KEY unset"))
	}
	if cfg.GeminiAPIKey != "" {
		registry.Register(gemini.New(cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.ProviderTimeout, prompts))
	} else {
		slog.Warn("gemini adapter not registered", slog.String("reason", "GEMINI_API_KEY unset"))
	}
	slog.Info("provider registry initialized", slog.Any("providers", registry.Providers()))

	cache := ai.NewResponseCache(cfg.CacheTTL, cfg.CacheMinQuestionLen, cfg.CacheMaxQuestionLen)

	maxRetries, initial, maxIv, mult := cfg.BackoffConfig()
	answers := usecase.NewAnswerService(registry, cache, limiter, defaultModels, usecase.RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: initial,
		MaxInterval:     maxIv,
		Multiplier:      mult,
	})

	srv := httpserver.NewServer(cfg, answers, limiter, registry.Providers)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Routes(),
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port), slog.String("env", cfg.AppEnv))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
