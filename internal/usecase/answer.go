// Package usecase contains the answer pipeline: the orchestrator that
// turns an AnswerRequest into a CanonicalResponse through the cache, the
// rate limiter, and a retried provider call.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/observability"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/service/ratelimiter"
)

// AdapterRegistry resolves provider identifiers to adapters.
type AdapterRegistry interface {
	Lookup(provider string) (domain.ProviderAdapter, bool)
}

// ResponseCache is the caching port the pipeline consumes.
type ResponseCache interface {
	Cacheable(question string) bool
	Get(question, provider, model, persona string) *domain.CanonicalResponse
	Set(question string, resp domain.CanonicalResponse, provider, model, persona string)
}

// Limiter is the admission port the pipeline consumes.
type Limiter interface {
	Check(provider string) ratelimiter.Decision
}

// RetryPolicy bounds the backoff loop around a provider call.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// AnswerService is the response pipeline. Generate never returns an error:
// every failure path resolves into a degraded CanonicalResponse.
type AnswerService struct {
	registry AdapterRegistry
	cache    ResponseCache
	limiter  Limiter
	models   map[string]string // provider -> default model
	retry    RetryPolicy
}

// NewAnswerService wires the pipeline.
func NewAnswerService(registry AdapterRegistry, cache ResponseCache, limiter Limiter, defaultModels map[string]string, retry RetryPolicy) *AnswerService {
	if defaultModels == nil {
		defaultModels = map[string]string{}
	}
	return &AnswerService{
		registry: registry,
		cache:    cache,
		limiter:  limiter,
		models:   defaultModels,
		retry:    retry,
	}
}

// Generate resolves req into a CanonicalResponse.
//
// Order is fixed as cache-before-rate-limit: a guaranteed hit answers
// without consuming provider quota, which is the fairer behavior under
// burst load since cached traffic never starves fresh questions.
func (s *AnswerService) Generate(ctx context.Context, req domain.AnswerRequest) domain.CanonicalResponse {
	lg := observability.LoggerFromContext(ctx)

	adapter, ok := s.registry.Lookup(req.Provider)
	if !ok {
		observability.AnswersTotal.WithLabelValues(req.Provider, "unknown_provider").Inc()
		lg.Warn("unknown provider requested", slog.String("provider", req.Provider))
		return s.degraded(req.Provider, req.Model,
			fmt.Sprintf("unknown provider: %q", req.Provider))
	}

	model := req.Model
	if model == "" {
		model = s.models[req.Provider]
	}
	req.Model = model

	cacheable := s.cache.Cacheable(req.Question)
	if cacheable {
		if hit := s.cache.Get(req.Question, req.Provider, model, req.Persona); hit != nil {
			observability.CacheLookupsTotal.WithLabelValues("hit").Inc()
			observability.AnswersTotal.WithLabelValues(req.Provider, "cache_hit").Inc()
			lg.Debug("cache hit", slog.String("provider", req.Provider), slog.String("model", model))
			return *hit
		}
		observability.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	if decision := s.limiter.Check(req.Provider); !decision.Allowed {
		observability.RateLimitRejectionsTotal.WithLabelValues(req.Provider).Inc()
		observability.AnswersTotal.WithLabelValues(req.Provider, "rate_limited").Inc()
		retryIn := int(decision.RetryAfter.Round(time.Second).Seconds())
		return s.degraded(req.Provider, model,
			fmt.Sprintf("%s; retry in %ds", decision.Reason, retryIn))
	}

	resp, err := s.callWithRetry(ctx, adapter, req)
	if err != nil {
		observability.AnswersTotal.WithLabelValues(req.Provider, "error").Inc()
		lg.Error("provider call failed", slog.String("provider", req.Provider), slog.String("model", model), slog.Any("error", err))
		return s.degraded(req.Provider, model, err.Error())
	}

	resp.ID = ulid.Make().String()
	if cacheable {
		// Best effort; Set never fails the caller.
		s.cache.Set(req.Question, resp, req.Provider, model, req.Persona)
	}
	observability.AnswersTotal.WithLabelValues(req.Provider, "ok").Inc()
	return resp
}

// callWithRetry runs one adapter call under the exponential backoff
// policy. Transient kinds (timeout, reset, 429, 5xx) retry up to
// MaxRetries times; everything else surfaces after a single attempt.
func (s *AnswerService) callWithRetry(ctx context.Context, adapter domain.ProviderAdapter, req domain.AnswerRequest) (domain.CanonicalResponse, error) {
	var resp domain.CanonicalResponse
	start := time.Now()

	op := func() error {
		var err error
		resp, err = adapter.Generate(ctx, req)
		if err == nil {
			return nil
		}
		if !domain.KindOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		observability.ProviderRetriesTotal.WithLabelValues(req.Provider, string(domain.KindOf(err))).Inc()
		return err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.retry.InitialInterval
	expo.MaxInterval = s.retry.MaxInterval
	expo.Multiplier = s.retry.Multiplier
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0 // bounded by attempt count, not wall time

	bo := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(s.retry.MaxRetries)), ctx)
	err := backoff.Retry(op, bo)
	observability.ProviderRequestDuration.WithLabelValues(req.Provider).Observe(time.Since(start).Seconds())
	if err != nil {
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			return domain.CanonicalResponse{}, pe
		}
		return domain.CanonicalResponse{}, err
	}
	return resp, nil
}

// ValidateProvider runs the adapter's key probe. Unknown providers are
// simply invalid.
func (s *AnswerService) ValidateProvider(ctx context.Context, provider string) bool {
	adapter, ok := s.registry.Lookup(provider)
	if !ok {
		return false
	}
	return adapter.Validate(ctx)
}

// degraded builds the fixed-shape failure response: the apology answer,
// empty structured fields, and the failure identity so the caller can
// always render something.
func (s *AnswerService) degraded(provider, model, errMsg string) domain.CanonicalResponse {
	if model == "" {
		model = "unknown"
	}
	return domain.CanonicalResponse{
		ID:                  ulid.Make().String(),
		Answer:              domain.FallbackAnswer,
		Provider:            provider,
		Model:               model,
		ExperienceMentioned: []string{},
		KeyTechnologies:     []string{},
		FollowUpTopics:      []string{},
		Error:               errMsg,
		CreatedAt:           time.Now().UTC(),
	}
}
