// Package observability wires logging, metrics, and tracing for the
// interview answer service.
package observability

import (
	"log/slog"
	"os"

	"github.com/GEEGEEGOOGOO/InterviewBuddy/internal/config"
)

// SetupLogger builds the process-wide JSON logger. Dev shows debug level.
func SetupLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
