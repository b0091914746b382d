package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/pkg/textx"
)

// answerRequestBody is the wire shape of POST /v1/answers.
type answerRequestBody struct {
	Question string           `json:"question" validate:"required,min=1,max=4000"`
	Provider string           `json:"provider" validate:"required,min=1"`
	Model    string           `json:"model"`
	History  []domain.Message `json:"history" validate:"max=50,dive"`
	RoleType string           `json:"role_type"`
	Context  *contextBody     `json:"context"`
	Persona  string           `json:"persona" validate:"max=2000"`
}

type contextBody struct {
	Resume          string   `json:"resume"`
	PreviousAnswers []string `json:"previous_answers"`
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// AnswerHandler resolves an answer request through the pipeline. The
// pipeline never fails, so this endpoint always answers 200 with a
// CanonicalResponse; only malformed requests get a 4xx.
func (s *Server) AnswerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body answerRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "malformed JSON body", nil)
			return
		}
		if err := getValidator().Struct(body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "validation failed", err.Error())
			return
		}

		req := domain.AnswerRequest{
			Question: textx.SanitizeText(body.Question),
			Provider: body.Provider,
			Model:    body.Model,
			History:  body.History,
			RoleType: body.RoleType,
			Persona:  body.Persona,
		}
		if body.Context != nil {
			req.Context = &domain.RequestContext{
				Resume:          textx.SanitizeText(body.Context.Resume),
				PreviousAnswers: body.Context.PreviousAnswers,
			}
		}

		resp := s.Answers.Generate(r.Context(), req)
		writeJSON(w, http.StatusOK, resp)
	}
}

// ValidateProviderHandler probes the named provider's credentials.
func (s *Server) ValidateProviderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		valid := s.Answers.ValidateProvider(r.Context(), provider)
		writeJSON(w, http.StatusOK, map[string]any{"provider": provider, "valid": valid})
	}
}

// LimitsHandler reports rate-limit usage for one provider.
func (s *Server) LimitsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		status := s.Limiter.Status(provider)
		if status == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "provider has no configured limits", map[string]string{"provider": provider})
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// ResetLimitsHandler zeroes a provider's windows. Administrative surface.
func (s *Server) ResetLimitsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Limiter.Reset(chi.URLParam(r, "provider"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyHandler reports readiness: the service is ready once at least one
// provider adapter is registered.
func (s *Server) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		providers := s.Providers()
		if len(providers) == 0 {
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "no providers registered", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready", "providers": providers})
	}
}
