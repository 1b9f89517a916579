// Package metrics exposes Prometheus instrumentation for the daemon.
// Every method is nil-safe so components can run without a registry
// in tests and one-shot CLIs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	documentsIngested  *prometheus.CounterVec
	extractionDuration *prometheus.HistogramVec
	tasksProcessed     *prometheus.CounterVec
	taskDuration       *prometheus.HistogramVec
	pendingTasks       prometheus.Gauge
	adapterRequests    *prometheus.CounterVec
}

// New builds a registry with all daemon collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		documentsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docenricher_documents_ingested_total",
			Help: "Documents ingested, by final status.",
		}, []string{"status"}),
		extractionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docenricher_extraction_duration_seconds",
			Help:    "Wall time of text extraction, by method.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"method"}),
		tasksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docenricher_tasks_processed_total",
			Help: "Enrichment tasks finished, by type and outcome.",
		}, []string{"type", "outcome"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docenricher_task_duration_seconds",
			Help:    "Wall time of enrichment task handling, by type.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"type"}),
		pendingTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docenricher_pending_tasks",
			Help: "Pending tasks seen by the last scheduler poll.",
		}),
		adapterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docenricher_adapter_requests_total",
			Help: "Requests to the enrichment adapter, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.documentsIngested,
		m.extractionDuration,
		m.tasksProcessed,
		m.taskDuration,
		m.pendingTasks,
		m.adapterRequests,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentIngested(status string) {
	if m == nil {
		return
	}
	m.documentsIngested.WithLabelValues(status).Inc()
}

func (m *Metrics) ExtractionDone(method string, d time.Duration) {
	if m == nil {
		return
	}
	m.extractionDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) TaskDone(taskType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasksProcessed.WithLabelValues(taskType, outcome).Inc()
	m.taskDuration.WithLabelValues(taskType).Observe(d.Seconds())
}

func (m *Metrics) SetPendingTasks(n int) {
	if m == nil {
		return
	}
	m.pendingTasks.Set(float64(n))
}

func (m *Metrics) AdapterRequest(outcome string) {
	if m == nil {
		return
	}
	m.adapterRequests.WithLabelValues(outcome).Inc()
}
