// Package ai provides the provider adapter registry, response caching,
// prompt construction, and response cleaning shared by all AI backends.
package ai

import (
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/pkg/cryptox"
	"github.com/GEEGEEGOOGOO/InterviewBuddy/pkg/textx"
)

// timeSensitiveWords marks questions whose answers go stale inside the TTL.
// Matching questions are never cached.
var timeSensitiveWords = []string{
	"today", "yesterday", "tomorrow", "current", "currently",
	"latest", "now", "recent", "this week", "this month", "this year",
}

// cacheEntry pairs a stored response with its creation time. Entries are
// owned exclusively by the cache; Get returns copies.
type cacheEntry struct {
	response  domain.CanonicalResponse
	createdAt time.Time
}

// ResponseCache maps normalized-question fingerprints to previously
// generated answers with a fixed TTL. Expired entries are evicted lazily
// on lookup; there is no background sweep. Safe for concurrent use.
type ResponseCache struct {
	mu     sync.RWMutex
	m      map[string]cacheEntry
	ttl    time.Duration
	minLen int
	maxLen int
	now    func() time.Time
}

// NewResponseCache builds a cache with the given TTL and question length
// bounds.
func NewResponseCache(ttl time.Duration, minLen, maxLen int) *ResponseCache {
	return &ResponseCache{
		m:      make(map[string]cacheEntry),
		ttl:    ttl,
		minLen: minLen,
		maxLen: maxLen,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Test hook.
func (c *ResponseCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Cacheable reports whether a question is eligible for caching: non-empty,
// within length bounds, and free of time-sensitive wording.
func (c *ResponseCache) Cacheable(question string) bool {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return false
	}
	n := utf8.RuneCountInString(trimmed)
	if n < c.minLen || n > c.maxLen {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, w := range timeSensitiveWords {
		if containsWord(lower, w) {
			return false
		}
	}
	return true
}

// Get returns a copy of the cached response, or nil on miss or expiry.
func (c *ResponseCache) Get(question, provider, model, persona string) *domain.CanonicalResponse {
	key := fingerprint(question, provider, model, persona)

	c.mu.RLock()
	entry, ok := c.m[key]
	now := c.now()
	c.mu.RUnlock()
	if !ok {
		return nil
	}
	if now.Sub(entry.createdAt) > c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry.
		if cur, still := c.m[key]; still && c.now().Sub(cur.createdAt) > c.ttl {
			delete(c.m, key)
		}
		c.mu.Unlock()
		return nil
	}
	resp := entry.response
	resp.Cached = true
	return &resp
}

// Set stores a response under the question's fingerprint. Caching is a
// best-effort optimization: Set never fails the caller.
func (c *ResponseCache) Set(question string, resp domain.CanonicalResponse, provider, model, persona string) {
	key := fingerprint(question, provider, model, persona)
	c.mu.Lock()
	c.m[key] = cacheEntry{response: resp, createdAt: c.now()}
	size := len(c.m)
	c.mu.Unlock()
	slog.Debug("response cached",
		slog.String("provider", provider),
		slog.String("model", model),
		slog.Int("entries", size))
}

// Clear drops every entry. Used by tests and admin recovery.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m = make(map[string]cacheEntry)
}

// Len returns the current entry count, expired entries included.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// fingerprint derives the cache key: SHA-256 over the normalized question
// joined with provider, model, and persona, so the same text under a
// different model or persona is a distinct key.
func fingerprint(question, provider, model, persona string) string {
	normalized := textx.NormalizeQuestion(question)
	return cryptox.HashSHA256Hex(normalized + "|" + provider + "|" + model + "|" + persona)
}

// containsWord reports whether lower contains w on word boundaries, so
// "nowadays" does not trip the "now" check.
func containsWord(lower, w string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordRune(rune(lower[start-1]))
		afterOK := end == len(lower) || !isWordRune(rune(lower[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
