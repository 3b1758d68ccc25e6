package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

const namespace = "qtfashion"

// Metrics owns the service registry and its collectors.
type Metrics struct {
	registry *prometheus.Registry

	OfferTransitions *prometheus.CounterVec
	Settlements      *prometheus.CounterVec
	JobRuns          *prometheus.CounterVec
	JobItems         *prometheus.CounterVec
	JobDuration      *prometheus.HistogramVec
	EventsPublished  *prometheus.CounterVec
	RequestCount     *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OfferTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "offer_transitions_total",
				Help:      "Offer state transitions by action.",
			},
			[]string{"action"},
		),
		Settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settlements_total",
				Help:      "Settlement attempts by confirming party and outcome.",
			},
			[]string{"confirmed_by", "outcome"},
		),
		JobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduler job runs by status.",
			},
			[]string{"job", "status"},
		),
		JobItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_items_total",
				Help:      "Items handled by scheduler jobs by result.",
			},
			[]string{"job", "result"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Scheduler job duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"job"},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Realtime events published by domain and status.",
			},
			[]string{"domain", "status"},
		),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OfferTransitions, m.Settlements,
		m.JobRuns, m.JobItems, m.JobDuration,
		m.EventsPublished,
		m.RequestCount, m.RequestDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OfferTransition implements usecase.Recorder.
func (m *Metrics) OfferTransition(action string) {
	m.OfferTransitions.WithLabelValues(action).Inc()
}

// Settlement implements usecase.Recorder.
func (m *Metrics) Settlement(by model.ConfirmedBy, outcome string) {
	m.Settlements.WithLabelValues(string(by), outcome).Inc()
}

// JobRun implements worker.JobObserver.
func (m *Metrics) JobRun(job string, report usecase.JobReport, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	m.JobItems.WithLabelValues(job, "succeeded").Add(float64(report.Succeeded))
	m.JobItems.WithLabelValues(job, "skipped").Add(float64(report.Skipped))
	m.JobItems.WithLabelValues(job, "failed").Add(float64(report.Failed))
}

// EventPublished counts one realtime publish attempt.
func (m *Metrics) EventPublished(domain string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.EventsPublished.WithLabelValues(domain, status).Inc()
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.RequestCount.WithLabelValues(method, path, code).Inc()
	m.RequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}
