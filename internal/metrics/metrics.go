// Package metrics exposes chessbook's Prometheus counters. The reducer stays
// pure; the runtime records what it executes and what fails.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chessbook"

// Metrics holds the collectors on a private registry so tests and multiple
// runtimes never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	// effects counts effects executed by the runtime.
	// Labels: kind (upload_pdf, render_page, ...)
	effects *prometheus.CounterVec

	// inferences counts move inference outcomes.
	// Labels: outcome (no_change, matched, no_match)
	inferences *prometheus.CounterVec

	// failures counts collaborator call failures.
	// Labels: service (pdf, recognition, extractor, studies, board, store)
	failures *prometheus.CounterVec

	// stale counts responses dropped because they no longer match the model.
	stale prometheus.Counter

	// latency measures collaborator round trips.
	// Labels: service
	latency *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		effects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "effects_total",
			Help:      "Effects executed by kind",
		}, []string{"kind"}),
		inferences: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "outcomes_total",
			Help:      "Move inference outcomes",
		}, []string{"outcome"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "services",
			Name:      "failures_total",
			Help:      "Collaborator call failures by service",
		}, []string{"service"}),
		stale: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "stale_messages_total",
			Help:      "Responses dropped because the model moved on",
		}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "services",
			Name:      "request_duration_seconds",
			Help:      "Collaborator request latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"service"}),
	}
}

// Effect records one executed effect.
func (m *Metrics) Effect(kind string) {
	if m == nil {
		return
	}
	m.effects.WithLabelValues(kind).Inc()
}

// Inference records one inference outcome.
func (m *Metrics) Inference(outcome string) {
	if m == nil {
		return
	}
	m.inferences.WithLabelValues(outcome).Inc()
}

// Failure records a failed call to service.
func (m *Metrics) Failure(service string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(service).Inc()
}

// Stale records a dropped stale response.
func (m *Metrics) Stale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}

// Observe records the duration of a call to service.
func (m *Metrics) Observe(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(service).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
