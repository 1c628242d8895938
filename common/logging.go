// Package common provides shared service plumbing: logger setup and
// version information.
package common

import (
	"log/slog"
	"os"
)

// PackageName tags metrics and logs emitted by this service.
const PackageName = "confidential_shipment_backend"

// Version is set at build time via ldflags.
var Version = "dev"

// LoggingOpts configures the service logger.
type LoggingOpts struct {
	// Debug enables debug-level messages.
	Debug bool

	// JSON switches to JSON output (text otherwise).
	JSON bool

	// Service is added as a 'service' tag to all messages, if set.
	Service string

	// Version is added as a 'version' tag to all messages, if set.
	Version string
}

// SetupLogger creates the process-wide structured logger.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	var level slog.Level
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}
