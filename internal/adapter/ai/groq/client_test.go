package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

type wireReq struct {
	Model    string              `json:"model"`
	Messages []map[string]string `json:"messages"`
	RespFmt  map[string]string   `json:"response_format"`
}

func testClient(baseURL string) *Client {
	return New("test-key", baseURL, 5*time.Second, ai.NewPromptBuilder(0))
}

func answerRequest() domain.AnswerRequest {
	return domain.AnswerRequest{
		Question: "What is React?",
		Provider: domain.ProviderGroq,
		Model:    "llama-3.3-70b-versatile",
		History: []domain.Message{
			{Role: "user", Content: "Tell me about yourself."},
			{Role: "assistant", Content: "I build backend services."},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var req wireReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "llama-3.3-70b-versatile" {
			t.Fatalf("unexpected model: %q", req.Model)
		}
		// system + 2 history turns + user question
		if len(req.Messages) != 4 {
			t.Fatalf("expected 4 messages, got %d", len(req.Messages))
		}
		if req.Messages[0]["role"] != "system" {
			t.Fatalf("first message should be system, got %q", req.Messages[0]["role"])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{
				"content": `{"answer":"React is a UI library.","key_technologies":["React"],"experience_mentioned":[],"follow_up_topics":["hooks"]}`,
			}}},
		})
	}))
	defer ts.Close()

	resp, err := testClient(ts.URL).Generate(context.Background(), answerRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Answer != "React is a UI library." {
		t.Fatalf("unexpected answer: %q", resp.Answer)
	}
	if resp.Provider != domain.ProviderGroq || resp.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected identity: %s/%s", resp.Provider, resp.Model)
	}
	if len(resp.FollowUpTopics) != 1 {
		t.Fatalf("unexpected follow ups: %v", resp.FollowUpTopics)
	}
}

func TestGenerate_MalformedReplyDegrades(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{
				"content": "React is a UI library, plain prose with no JSON at all.",
			}}},
		})
	}))
	defer ts.Close()

	resp, err := testClient(ts.URL).Generate(context.Background(), answerRequest())
	if err != nil {
		t.Fatalf("generate should not fail on malformed content: %v", err)
	}
	if resp.Answer == "" {
		t.Fatal("degraded answer must be non-empty")
	}
	if len(resp.KeyTechnologies) != 0 {
		t.Fatalf("degraded structured fields must be empty: %v", resp.KeyTechnologies)
	}
}

func TestGenerate_BlankContentFails(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "   "}}},
		})
	}))
	defer ts.Close()

	resp, err := testClient(ts.URL).Generate(context.Background(), answerRequest())
	if err == nil {
		t.Fatalf("blank content must fail, got answer %q", resp.Answer)
	}
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Kind != domain.KindParse {
		t.Fatalf("expected parse kind, got %v", err)
	}
}

func TestGenerate_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		wantKind  domain.ErrorKind
		retryable bool
	}{
		{429, domain.KindRateLimited, true},
		{500, domain.KindServerError, true},
		{503, domain.KindServerError, true},
		{400, domain.KindBadRequest, false},
		{401, domain.KindAuth, false},
	}
	for _, tc := range tests {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := testClient(ts.URL).Generate(context.Background(), answerRequest())
		ts.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		var pe *domain.ProviderError
		if !errors.As(err, &pe) {
			t.Fatalf("status %d: expected ProviderError, got %T", tc.status, err)
		}
		if pe.Kind != tc.wantKind {
			t.Fatalf("status %d: kind = %s, want %s", tc.status, pe.Kind, tc.wantKind)
		}
		if pe.Kind.Retryable() != tc.retryable {
			t.Fatalf("status %d: retryable = %v, want %v", tc.status, pe.Kind.Retryable(), tc.retryable)
		}
	}
}

func TestGenerate_MissingKey(t *testing.T) {
	c := New("", "http://localhost:0", time.Second, ai.NewPromptBuilder(0))
	_, err := c.Generate(context.Background(), answerRequest())
	if domain.KindOf(err) != domain.KindAuth {
		t.Fatalf("expected auth kind, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	if !testClient(ts.URL).Validate(context.Background()) {
		t.Fatal("validate should succeed against healthy backend")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer bad.Close()
	if testClient(bad.URL).Validate(context.Background()) {
		t.Fatal("validate should fail on 401")
	}
	if testClient("http://127.0.0.1:1").Validate(context.Background()) {
		t.Fatal("validate should fail on connection error")
	}
}
