// Package domain defines the core entities and ports of the interview
// answer service: the canonical response shape, the answer request, and
// the provider adapter contract.
package domain

import (
	"context"
	"time"
)

// Known provider identifiers. The registry accepts any string key; these
// constants cover the built-in adapters.
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// FallbackAnswer is returned whenever a provider call cannot produce an
// answer. Consumers never branch on an absent answer.
const FallbackAnswer = "I apologize, but I'm having trouble generating a response right now. Please try again."

// DefaultRoleType frames the candidate when the caller supplies none.
const DefaultRoleType = "Software Engineer"

// MaxHistoryTurns caps how many trailing conversation turns are embedded
// into a prompt.
const MaxHistoryTurns = 10

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RequestContext carries optional long-term context for prompt building.
type RequestContext struct {
	Resume          string   `json:"resume,omitempty"`
	PreviousAnswers []string `json:"previous_answers,omitempty"`
}

// AnswerRequest is the inbound tuple the pipeline resolves into a
// CanonicalResponse.
type AnswerRequest struct {
	Question string
	Provider string
	Model    string
	History  []Message
	RoleType string
	Context  *RequestContext
	Persona  string
}

// CanonicalResponse is the uniform answer shape returned by the pipeline
// regardless of backend or failure mode. Answer is always non-empty.
type CanonicalResponse struct {
	ID                  string    `json:"id"`
	Answer              string    `json:"answer"`
	Provider            string    `json:"provider"`
	Model               string    `json:"model"`
	ExperienceMentioned []string  `json:"experience_mentioned"`
	KeyTechnologies     []string  `json:"key_technologies"`
	FollowUpTopics      []string  `json:"follow_up_topics"`
	Cached              bool      `json:"cached"`
	Error               string    `json:"error,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// Degraded reports whether the response is a failure fallback.
func (r CanonicalResponse) Degraded() bool { return r.Error != "" }

// ProviderAdapter is the capability each AI backend implements. Generate
// returns a classified error (see ProviderError) so the pipeline can decide
// retryability without string matching.
type ProviderAdapter interface {
	// Name returns the provider identifier the adapter is registered under.
	Name() string
	// Generate resolves one answer attempt against the backend.
	Generate(ctx context.Context, req AnswerRequest) (CanonicalResponse, error)
	// Validate issues a minimal probe request; false on any failure.
	Validate(ctx context.Context) bool
}
