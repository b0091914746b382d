// Package gemini implements the provider adapter for Google's Gemini
// generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/adapter/ai"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// Client calls Gemini generateContent. One Generate call is one attempt;
// retries belong to the pipeline.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	prompts *ai.PromptBuilder
	cleaner *ai.ResponseCleaner
}

// New constructs a Gemini adapter.
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
func (c *Client) Name() string { return domain.ProviderGemini }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate issues one generateContent attempt and normalizes the reply.
func (c *Client) Generate(ctx context.Context, req domain.AnswerRequest) (domain.CanonicalResponse, error) {
	if c.apiKey == "" {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindAuth, 0, "GEMINI_API_KEY missing", domain.ErrInvalidArgument)
	}

	prompt := c.prompts.Build(req)
	contents := make([]content, 0, len(prompt.History)+1)
	for _, m := range prompt.History {
		role := "user"
		if m.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: prompt.User}}})

	body, _ := json.Marshal(generateRequest{
		SystemInstruction: &content{Parts: []part{{Text: prompt.System}}},
		Contents:          contents,
		GenerationConfig: generationConfig{
			Temperature:      0.7,
			MaxOutputTokens:  1024,
			ResponseMimeType: "application/json",
		},
	})

	// The key travels in a header, never the URL: request URLs end up in
	// traces and access logs.
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindBadRequest, 0, "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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
		slog.Warn("gemini non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", req.Model),
			slog.String("kind", string(kind)),
			slog.String("body", snippet))
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), kind, resp.StatusCode, fmt.Sprintf("generateContent status %d", resp.StatusCode), nil)
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindParse, resp.StatusCode, "decode envelope", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindParse, resp.StatusCode, "empty candidates", nil)
	}

	var raw bytes.Buffer
	for _, p := range out.Candidates[0].Content.Parts {
		raw.WriteString(p.Text)
	}
	if strings.TrimSpace(raw.String()) == "" {
		// A blank candidate is a failure, not a cacheable answer.
		return domain.CanonicalResponse{}, domain.NewProviderError(c.Name(), domain.KindParse, resp.StatusCode, "empty candidate text", nil)
	}
	payload, structured := c.cleaner.Decode(raw.String())
	if !structured {
		slog.Warn("gemini reply not structured, degraded to text",
			slog.String("model", req.Model),
			slog.Int("raw_len", raw.Len()))
	}
	return ai.PayloadToResponse(payload, c.Name(), req.Model), nil
}

// Validate probes the models listing with the configured key.
func (c *Client) Validate(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models?pageSize=1", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

var _ domain.ProviderAdapter = (*Client)(nil)
