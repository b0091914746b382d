package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/config"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/service/ratelimiter"
)

type fakeAnswers struct {
	lastReq domain.AnswerRequest
	valid   bool
}

func (f *fakeAnswers) Generate(_ context.Context, req domain.AnswerRequest) domain.CanonicalResponse {
	f.lastReq = req
	return domain.CanonicalResponse{
		ID:       "01JX0000000000000000000000",
		Answer:   "A generated answer.",
		Provider: req.Provider,
		Model:    req.Model,
	}
}

func (f *fakeAnswers) ValidateProvider(_ context.Context, provider string) bool {
	return f.valid && provider == "groq"
}

func testServer(t *testing.T) (*Server, *fakeAnswers, *ratelimiter.WindowLimiter) {
	t.Helper()
	cfg := config.Config{
		AppEnv:              "test",
		CORSAllowOrigins:    "*",
		EdgeRateLimitPerMin: 1000,
		RequestTimeout:      5_000_000_000,
	}
	answers := &fakeAnswers{}
	limiter := ratelimiter.New(map[string]ratelimiter.Ceiling{"groq": {PerMinute: 30, PerHour: 500}})
	srv := NewServer(cfg, answers, limiter, func() []string { return []string{"gemini", "groq"} })
	return srv, answers, limiter
}

func TestAnswerHandler_Success(t *testing.T) {
	srv, answers, _ := testServer(t)
	body := `{"question":"What is React?","provider":"groq","model":"llama-3.3-70b-versatile","history":[{"role":"user","content":"hi"}]}`

	req := httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.CanonicalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "A generated answer.", resp.Answer)
	assert.Equal(t, "groq", resp.Provider)
	assert.Equal(t, "What is React?", answers.lastReq.Question)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestAnswerHandler_SanitizesQuestion(t *testing.T) {
	srv, answers, _ := testServer(t)
	body := `{"question":"\u00a0 What is React? \t ","provider":"groq"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What is React?", answers.lastReq.Question)
}

func TestAnswerHandler_MalformedBody(t *testing.T) {
	srv, _, _ := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestAnswerHandler_MissingFields(t *testing.T) {
	srv, _, _ := testServer(t)
	for _, body := range []string{`{}`, `{"question":"hi"}`, `{"provider":"groq"}`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/answers", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.Routes().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestValidateProviderHandler(t *testing.T) {
	srv, answers, _ := testServer(t)
	answers.valid = true

	req := httptest.NewRequest(http.MethodPost, "/v1/providers/groq/validate", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"provider":"groq","valid":true}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/v1/providers/openai/validate", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.JSONEq(t, `{"provider":"openai","valid":false}`, rec.Body.String())
}

func TestLimitsHandlers(t *testing.T) {
	srv, _, limiter := testServer(t)
	limiter.Check("groq")

	req := httptest.NewRequest(http.MethodGet, "/v1/limits/groq", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var status ratelimiter.ProviderStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.PerMinute.Used)

	req = httptest.NewRequest(http.MethodGet, "/v1/limits/openai", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/limits/groq", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, limiter.Status("groq").PerMinute.Used)
}

func TestHealthAndReady(t *testing.T) {
	srv, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "groq")
}

func TestReady_NoProviders(t *testing.T) {
	srv, _, _ := testServer(t)
	srv.Providers = func() []string { return nil }

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
