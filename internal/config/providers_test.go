package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		GroqRateLimitPerMin:    30,
		GroqRateLimitPerHour:   500,
		GroqModel:              "llama-3.3-70b-versatile",
		GeminiRateLimitPerMin:  15,
		GeminiRateLimitPerHour: 300,
		GeminiModel:            "gemini-2.0-flash",
	}
}

func TestProviderTable_EnvDefaults(t *testing.T) {
	table, err := baseConfig().ProviderTable()
	require.NoError(t, err)

	require.Contains(t, table, "groq")
	require.Contains(t, table, "gemini")
	assert.Equal(t, 30, table["groq"].PerMinute)
	assert.Equal(t, 500, table["groq"].PerHour)
	assert.Equal(t, "llama-3.3-70b-versatile", table["groq"].DefaultModel)
	assert.Equal(t, 15, table["gemini"].PerMinute)
}

func TestProviderTable_YAMLOverrides(t *testing.T) {
	doc := `
providers:
  groq:
    per_minute: 10
  gemini:
    default_model: gemini-1.5-pro
  openrouter:
    per_minute: 20
    per_hour: 200
    default_model: meta-llama/llama-3-8b-instruct
`
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg := baseConfig()
	cfg.ProvidersFile = path
	table, err := cfg.ProviderTable()
	require.NoError(t, err)

	// Partial override keeps untouched fields.
	assert.Equal(t, 10, table["groq"].PerMinute)
	assert.Equal(t, 500, table["groq"].PerHour)
	assert.Equal(t, "llama-3.3-70b-versatile", table["groq"].DefaultModel)
	assert.Equal(t, "gemini-1.5-pro", table["gemini"].DefaultModel)
	assert.Equal(t, 15, table["gemini"].PerMinute)

	// New providers from YAML join the table.
	assert.Equal(t, 20, table["openrouter"].PerMinute)
	assert.Equal(t, "meta-llama/llama-3-8b-instruct", table["openrouter"].DefaultModel)
}

func TestProviderTable_FileErrors(t *testing.T) {
	cfg := baseConfig()
	cfg.ProvidersFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := cfg.ProviderTable()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: [unclosed"), 0o600))
	cfg.ProvidersFile = path
	_, err = cfg.ProviderTable()
	assert.Error(t, err)
}
