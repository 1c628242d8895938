package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/sealane/confidential-shipment-backend/metrics"
)

// MultiSink fans an event out to several sinks. The append succeeds if
// at least one sink accepted the event; individual failures are logged
// and counted, matching the best-effort journal contract.
type MultiSink struct {
	sinks []interfaces.EventSink
	log   *slog.Logger
}

// NewMultiSink creates a fan-out sink.
func NewMultiSink(sinks []interfaces.EventSink, log *slog.Logger) *MultiSink {
	if log == nil {
		log = slog.Default()
	}
	return &MultiSink{sinks: sinks, log: log}
}

// Append delivers the event to every available sink.
func (m *MultiSink) Append(ctx context.Context, ev interfaces.Event) error {
	var delivered int
	var errs []error

	for _, sink := range m.sinks {
		if !sink.Available(ctx) {
			m.log.Debug("Journal sink unavailable", slog.String("sink", sink.Name()))
			continue
		}

		if err := sink.Append(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			metrics.IncEventSinkError(sink.Name())
			m.log.Warn("Journal sink append failed",
				"err", err,
				slog.String("sink", sink.Name()),
				slog.String("event_id", ev.ID))
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return fmt.Errorf("all journal sinks failed for event %s: %v", ev.ID, errs)
	}
	return nil
}

// Name returns the sink identifier.
func (m *MultiSink) Name() string { return "multi" }

// Available reports whether any underlying sink is available.
func (m *MultiSink) Available(ctx context.Context) bool {
	for _, sink := range m.sinks {
		if sink.Available(ctx) {
			return true
		}
	}
	return false
}
