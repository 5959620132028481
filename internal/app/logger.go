package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide slog.Logger shared by the portal and the
// worker binaries. LOG_FORMAT=json switches to JSON output for log shippers;
// anything else gets the text handler for local runs.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
