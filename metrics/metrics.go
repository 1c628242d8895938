// Package metrics exposes Prometheus-compatible metrics on a dedicated
// listener, separate from the API listener.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

// MetricsServer serves the /metrics endpoint.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given namespace and listen
// address. An empty address disables the server; ListenAndServe then
// returns immediately.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	if listenAddr == "" {
		return &MetricsServer{}, nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:    listenAddr,
			Handler: mux,
		},
	}, nil
}

// ListenAndServe blocks serving metrics until Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	if m.srv == nil {
		return nil
	}
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	if m.srv == nil {
		return nil
	}
	return m.srv.Shutdown(ctx)
}

// IncOp counts one completed shipment operation.
func IncOp(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`shipment_operations_total{op=%q}`, op)).Inc()
}

// IncOpError counts one failed shipment operation by error kind.
func IncOpError(op, kind string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`shipment_operation_errors_total{op=%q,kind=%q}`, op, kind)).Inc()
}

// IncEventSinkError counts one failed journal append by sink.
func IncEventSinkError(sink string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`shipment_journal_errors_total{sink=%q}`, sink)).Inc()
}
