package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderSettings carries the per-provider knobs the pipeline consumes:
// rate-limit ceilings and the model used when the caller picks none.
type ProviderSettings struct {
	PerMinute    int    `yaml:"per_minute"`
	PerHour      int    `yaml:"per_hour"`
	DefaultModel string `yaml:"default_model"`
}

// providersFile is the YAML override document shape.
type providersFile struct {
	Providers map[string]ProviderSettings `yaml:"providers"`
}

// ProviderTable builds the per-provider settings map from env defaults,
// then applies overrides from ProvidersFile when set. Unknown providers in
// the YAML are accepted as-is; the rate limiter fails open only for
// providers absent from the table.
func (c Config) ProviderTable() (map[string]ProviderSettings, error) {
	table := map[string]ProviderSettings{
		"groq": {
			PerMinute:    c.GroqRateLimitPerMin,
			PerHour:      c.GroqRateLimitPerHour,
			DefaultModel: c.GroqModel,
		},
		"gemini": {
			PerMinute:    c.GeminiRateLimitPerMin,
			PerHour:      c.GeminiRateLimitPerHour,
			DefaultModel: c.GeminiModel,
		},
	}
	if c.ProvidersFile == "" {
		return table, nil
	}
	raw, err := os.ReadFile(c.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("op=config.ProviderTable read %s: %w", c.ProvidersFile, err)
	}
	var doc providersFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("op=config.ProviderTable parse %s: %w", c.ProvidersFile, err)
	}
	for name, override := range doc.Providers {
		base := table[name]
		if override.PerMinute > 0 {
			base.PerMinute = override.PerMinute
		}
		if override.PerHour > 0 {
			base.PerHour = override.PerHour
		}
		if override.DefaultModel != "" {
			base.DefaultModel = override.DefaultModel
		}
		table[name] = base
	}
	return table, nil
}
