// Package groq implements the provider adapter for Groq's OpenAI-compatible
// chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// Client calls Groq chat completions. One Generate call is one attempt;
// retries belong to the pipeline.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	prompts *ai.PromptBuilder
	cleaner *ai.ResponseCleaner
}

// New constructs a Groq adapter.
func New(apiKey, baseURL string, timeout time.Duration, prompts *ai.PromptBuilder) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		hc:      ai.NewHTTPClient(timeout),
		prompts: prompts,
		cleaner: ai.NewResponseCleaner(),
	}
}

// Name implements domain.ProviderAdapter.
func (c *Client) Name() string { return domain.ProviderGroq }

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
	ResponseFmt *responseFmt  `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate issues one chat completion attempt and normalizes the reply.
func (c *Client) Generate(ctx context.Context, req domain.AnswerRequest) (domain.CanonicalResponse, error) {
	if c.apiKey == "" {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindAuth, 0, "GROQ_API_KEY missing", domain.ErrInvalidArgument)
	}

	prompt := c.prompts.Build(req)
	messages := make([]chatMessage, 0, len(prompt.History)+2)
	messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	for _, m := range prompt.History {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.User})

	body, _ := json.Marshal(chatRequest{
		Model:       req.Model,
		Temperature: 0.7,
		MaxTokens:   1024,
		Messages:    messages,
		ResponseFmt: &responseFmt{Type: "json_object"},
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindBadRequest, 0, "build request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return domain.CanonicalResponse{}, ai.ClassifyTransportError(c.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.CanonicalResponse{}, ai.ClassifyTransportError(c.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := domain.ClassifyStatus(resp.StatusCode)
		snippet := string(respBody)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		slog.Warn("groq non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", req.Model),
			slog.String("kind", string(kind)),
			slog.String("body", snippet))
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), kind, resp.StatusCode, fmt.Sprintf("chat status %d", resp.StatusCode), nil)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindParse, resp.StatusCode, "decode envelope", err)
	}
	if len(out.Choices) == 0 {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindParse, resp.StatusCode, "empty choices", nil)
	}
	content := out.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		// A blank completion is a failure, not a cacheable answer.
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindParse, resp.StatusCode, "empty message content", nil)
	}

	payload, structured := c.cleaner.Decode(content)
	if !structured {
		slog.Warn("groq reply not structured, degraded to text",
			slog.String("model", req.Model),
			slog.Int("raw_len", len(content)))
	}
	return ai.PayloadToResponse(payload, c.Name(), req.Model), nil
}

// Validate probes the models endpoint with the configured key.
func (c *Client) Validate(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

var _ domain.ProviderAdapter = (*Client)(nil)
