package ai

import (
	"sort"
	"sync"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/domain"
)

// Registry maps provider identifiers to adapters. Adding a backend means
// registering an implementation, not editing the pipeline.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]domain.ProviderAdapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]domain.ProviderAdapter)}
}

// Register adds or replaces the adapter under its own name.
func (r *Registry) Register(a domain.ProviderAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Lookup returns the adapter for provider, or false when unknown.
func (r *Registry) Lookup(provider string) (domain.ProviderAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[provider]
	return a, ok
}

// Providers lists registered provider names, sorted.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
