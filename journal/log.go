package journal

import (
	"context"
	"log/slog"

	"github.com/sealane/confidential-shipment-backend/interfaces"
)

// LogSink writes events to the structured log. Always available; used
// as the default sink and as a safety net inside multi-sink setups.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink(log *slog.Logger) *LogSink {
	if log == nil {
		log = slog.Default()
	}
	return &LogSink{log: log}
}

// Append logs the event.
func (s *LogSink) Append(ctx context.Context, ev interfaces.Event) error {
	s.log.Info("Shipment event",
		slog.String("event_id", ev.ID),
		slog.String("kind", string(ev.Kind)),
		slog.String("shipment", ev.Shipment.String()),
		slog.Any("parties", ev.Parties),
		slog.Any("handles", ev.Handles))
	return nil
}

// Name returns the sink identifier.
func (s *LogSink) Name() string { return "log" }

// Available always reports true.
func (s *LogSink) Available(ctx context.Context) bool { return true }
