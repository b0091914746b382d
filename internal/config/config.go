// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	GroqAPIKey    string `env:"GROQ_API_KEY"`
	GroqBaseURL   string `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel     string `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// ProvidersFile optionally points at a YAML file overriding per-provider
	// rate-limit ceilings and default models.
	ProvidersFile string `env:"PROVIDERS_FILE"`

	// Response cache
	CacheTTL            time.Duration `env:"CACHE_TTL" envDefault:"3600s"`
	CacheMinQuestionLen int           `env:"CACHE_MIN_QUESTION_LEN" envDefault:"10"`
	CacheMaxQuestionLen int           `env:"CACHE_MAX_QUESTION_LEN" envDefault:"1000"`

	// Provider rate-limit defaults; YAML overrides win when present.
	GroqRateLimitPerMin    int `env:"GROQ_RATE_LIMIT_PER_MIN" envDefault:"30"`
	GroqRateLimitPerHour   int `env:"GROQ_RATE_LIMIT_PER_HOUR" envDefault:"500"`
	GeminiRateLimitPerMin  int `env:"GEMINI_RATE_LIMIT_PER_MIN" envDefault:"15"`
	GeminiRateLimitPerHour int `env:"GEMINI_RATE_LIMIT_PER_HOUR" envDefault:"300"`

	// AI call retry/backoff
	RetryMaxRetries      int           `env:"RETRY_MAX_RETRIES" envDefault:"3"`
	RetryInitialInterval time.Duration `env:"RETRY_INITIAL_INTERVAL" envDefault:"1s"`
	RetryMaxInterval     time.Duration `env:"RETRY_MAX_INTERVAL" envDefault:"10s"`
	RetryMultiplier      float64       `env:"RETRY_MULTIPLIER" envDefault:"2.0"`

	// Prompt budgeting
	PromptTokenBudget int `env:"PROMPT_TOKEN_BUDGET" envDefault:"6000"`

	// HTTP server
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	EdgeRateLimitPerMin   int           `env:"EDGE_RATE_LIMIT_PER_MIN" envDefault:"60"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`

	// Provider HTTP client
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"60s"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"interview-buddy"`
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// BackoffConfig returns retry/backoff settings appropriate for the current
// environment. Test environments shrink intervals so retry paths run fast.
func (c Config) BackoffConfig() (maxRetries int, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return c.RetryMaxRetries, 10 * time.Millisecond, 100 * time.Millisecond, 2.0
	}
	return c.RetryMaxRetries, c.RetryInitialInterval, c.RetryMaxInterval, c.RetryMultiplier
}
