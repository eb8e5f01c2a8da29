package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for console self-monitoring.
// It uses a custom registry to avoid polluting the global default.
type Metrics struct {
	Registry *prometheus.Registry

	// Manifest metrics
	RenderDuration        prometheus.Histogram
	ValidationErrorsTotal *prometheus.CounterVec

	// Editor metrics
	EditorSyncTotal *prometheus.CounterVec
	EditorSessions  prometheus.Gauge

	// API metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Cluster metrics
	ApplyTotal *prometheus.CounterVec

	// Informer metrics
	InformerEventsTotal *prometheus.CounterVec

	// Store metrics
	StoreItems *prometheus.GaugeVec

	// Enrichment metrics
	EnricherDuration *prometheus.HistogramVec

	// Stats metrics
	StatsPollDuration prometheus.Histogram

	// State metrics
	ConsoleState *prometheus.GaugeVec

	// Transport metrics
	TransportRetries prometheus.Counter

	// Compression metrics
	CompressionRatio    prometheus.Gauge
	CompressionDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all Prometheus metrics
// registered on a custom registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kubeadapt_console_render_duration_seconds",
			Help:    "Duration of form to YAML manifest rendering in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		ValidationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeadapt_console_validation_errors_total",
			Help: "Total number of manifest errors reported, by stage.",
		}, []string{"stage"}),

		EditorSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeadapt_console_editor_sync_total",
			Help: "Total number of editor sync attempts, by result.",
		}, []string{"result"}),
		EditorSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kubeadapt_console_editor_sessions",
			Help: "Current number of open editor sessions.",
		}),

		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeadapt_console_api_requests_total",
			Help: "Total number of API requests, by route and status code.",
		}, []string{"route", "code"}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kubeadapt_console_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		ApplyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeadapt_console_apply_total",
			Help: "Total number of cluster apply and delete operations.",
		}, []string{"kind", "status"}),

		InformerEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kubeadapt_console_informer_events_total",
			Help: "Total number of informer events received.",
		}, []string{"resource", "event"}),

		StoreItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kubeadapt_console_store_items",
			Help: "Current number of items in the store.",
		}, []string{"resource"}),

		EnricherDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kubeadapt_console_enricher_duration_seconds",
			Help:    "Duration of list-time enrichment, by enricher.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"enricher"}),

		StatsPollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kubeadapt_console_stats_poll_duration_seconds",
			Help:    "Duration of metrics-server pod stats polls in seconds.",
			Buckets: prometheus.DefBuckets,
		}),

		ConsoleState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "kubeadapt_console_state",
			Help: "Current console state (1 = active, 0 = inactive).",
		}, []string{"state"}),

		TransportRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kubeadapt_console_transport_retries_total",
			Help: "Total number of client transport retry attempts.",
		}),

		CompressionRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kubeadapt_console_compression_ratio",
			Help: "Most recent request body compression ratio (original/compressed).",
		}),
		CompressionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kubeadapt_console_compression_duration_seconds",
			Help:    "Duration of request body compression in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.RenderDuration,
		m.ValidationErrorsTotal,
		m.EditorSyncTotal,
		m.EditorSessions,
		m.APIRequestsTotal,
		m.APIRequestDuration,
		m.ApplyTotal,
		m.InformerEventsTotal,
		m.StoreItems,
		m.EnricherDuration,
		m.StatsPollDuration,
		m.ConsoleState,
		m.TransportRetries,
		m.CompressionRatio,
		m.CompressionDuration,
	)

	return m
}
