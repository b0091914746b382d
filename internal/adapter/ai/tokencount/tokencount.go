// Package tokencount estimates prompt token usage so prompt builders can
// stay inside a model's context budget. It uses tiktoken-go; models our
// providers serve (Llama, Gemini) tokenize close enough to cl100k_base for
// budgeting purposes.
package tokencount

import (
	"strings"
	"sync"

	"log/slog"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktokenloader "github.com/pkoukk/tiktoken-go-loader"
)

var loaderOnce sync.Once

// Counter provides thread-safe token counting keyed by model.
type Counter struct {
	mu    sync.RWMutex
	cache map[string]*tiktoken.Tiktoken
}

// NewCounter creates a counter with an empty encoding cache. Encodings are
// loaded from the embedded offline dictionaries so no network fetch happens
// at runtime.
func NewCounter() *Counter {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktokenloader.NewOfflineLoader())
	})
	return &Counter{cache: make(map[string]*tiktoken.Tiktoken)}
}

// Count returns the token count of text under the model's encoding. On any
// encoding failure it falls back to a conservative 4-bytes-per-token
// estimate rather than failing the caller.
func (c *Counter) Count(text, model string) int {
	enc, err := c.encodingFor(model)
	if err != nil {
		slog.Debug("token encoding unavailable, estimating",
			slog.String("model", model), slog.Any("error", err))
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	key := normalizeModel(model)

	c.mu.RLock()
	enc, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.cache[key]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(key)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, err
		}
	}
	c.cache[key] = enc
	return enc, nil
}

// normalizeModel maps provider model IDs onto tiktoken-known names.
func normalizeModel(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	switch {
	case strings.Contains(model, "gpt-4"):
		return "gpt-4"
	case strings.Contains(model, "llama"), strings.Contains(model, "gemini"), strings.Contains(model, "mixtral"):
		// Close enough to cl100k_base for budget decisions.
		return "gpt-4"
	default:
		return "gpt-4"
	}
}
