package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/config"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/observability"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/service/ratelimiter"
)

// AnswerService is the pipeline surface the handlers consume.
type AnswerService interface {
	Generate(ctx context.Context, req domain.AnswerRequest) domain.CanonicalResponse
	ValidateProvider(ctx context.Context, provider string) bool
}

// LimiterAdmin is the introspection surface of the rate limiter.
type LimiterAdmin interface {
	Status(provider string) *ratelimiter.ProviderStatus
	Reset(provider string)
}

// Server aggregates handler dependencies.
type Server struct {
	Cfg       config.Config
	Answers   AnswerService
	Limiter   LimiterAdmin
	Providers func() []string
}

// NewServer constructs the HTTP server with all handlers wired.
func NewServer(cfg config.Config, answers AnswerService, limiter LimiterAdmin, providers func() []string) *Server {
	return &Server{Cfg: cfg, Answers: answers, Limiter: limiter, Providers: providers}
}

// Routes assembles the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(Recoverer())
	r.Use(RequestID())
	r.Use(SecurityHeaders)
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: strings.Split(s.Cfg.CORSAllowOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.HealthHandler())
	r.Get("/readyz", s.ReadyHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Edge throttle is per-IP and separate from the per-provider
		// admission control inside the pipeline.
		r.Use(httprate.LimitByIP(s.Cfg.EdgeRateLimitPerMin, time.Minute))
		r.Use(TimeoutMiddleware(s.Cfg.RequestTimeout))

		r.Post("/answers", s.AnswerHandler())
		r.Post("/providers/{provider}/validate", s.ValidateProviderHandler())
		r.Get("/limits/{provider}", s.LimitsHandler())
		r.Delete("/limits/{provider}", s.ResetLimitsHandler())
	})

	return r
}
