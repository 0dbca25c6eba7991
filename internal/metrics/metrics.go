// Package metrics exposes the console's operational counters to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "health_console"

// Metrics implements dashboard.Recorder on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	remoteCalls  *prometheus.CounterVec
	pagesLoaded  prometheus.Counter
	summaries    *prometheus.CounterVec
	staleResults prometheus.Counter
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.remoteCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_calls_total",
		Help:      "Remote service calls by service and outcome",
	}, []string{"service", "outcome"})
	m.pagesLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pages_loaded_total",
		Help:      "Pages of event details merged into a snapshot",
	})
	m.summaries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summaries_total",
		Help:      "Settled summarization attempts by outcome",
	}, []string{"outcome"})
	m.staleResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_results_total",
		Help:      "Results discarded because a newer snapshot replaced theirs",
	})

	m.registry.MustRegister(
		m.remoteCalls, m.pagesLoaded, m.summaries, m.staleResults,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RemoteCall(service, outcome string) {
	m.remoteCalls.WithLabelValues(service, outcome).Inc()
}

func (m *Metrics) PageLoaded() { m.pagesLoaded.Inc() }

func (m *Metrics) SummarySettled(outcome string) {
	m.summaries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StaleResult() { m.staleResults.Inc() }

// Registry returns the registry holding the console collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Serve runs the metrics endpoint on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
