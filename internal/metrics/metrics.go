// Package metrics exposes pipeline throughput counters and latency via
// Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles the pipeline metrics on a private registry.
type Set struct {
	registry *prometheus.Registry

	MessagesProcessed prometheus.Counter
	SnapshotsRejected prometheus.Counter
	CyclesSkipped     prometheus.Counter
	RecordsPublished  prometheus.Counter
	RecordsDropped    prometheus.Counter
	ReconnectsTotal   prometheus.Counter
	PipelineLatencyMs prometheus.Gauge
}

// New creates a Set and registers all collectors.
func New() *Set {
	s := &Set{
		registry: prometheus.NewRegistry(),
		MessagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costsim_messages_processed_total",
			Help: "Validated orderbook messages processed by the pipeline.",
		}),
		SnapshotsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costsim_snapshots_rejected_total",
			Help: "Orderbook messages rejected by the validator.",
		}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costsim_cycles_skipped_total",
			Help: "Refresh cycles skipped because of invalid operator input.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costsim_records_published_total",
			Help: "Cost estimate records published to the handoff queue.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costsim_records_dropped_total",
			Help: "Records evicted from the handoff queue on overflow.",
		}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "costsim_feed_reconnects_total",
			Help: "Websocket reconnect attempts.",
		}),
		PipelineLatencyMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "costsim_pipeline_latency_ms",
			Help: "Trailing-average per-message processing latency in milliseconds.",
		}),
	}

	s.registry.MustRegister(
		s.MessagesProcessed,
		s.SnapshotsRejected,
		s.CyclesSkipped,
		s.RecordsPublished,
		s.RecordsDropped,
		s.ReconnectsTotal,
		s.PipelineLatencyMs,
		collectors.NewGoCollector(),
	)
	return s
}

// Handler returns the /metrics HTTP handler for the private registry.
func (s *Set) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics HTTP server on addr until ctx is cancelled.
func (s *Set) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
