// Package metrics exposes Prometheus instrumentation for the server and workers.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranshivaraju/pitchlens/pkg/models"
)

// Submission outcomes.
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
	SubmissionError    = "error"
)

// Metrics owns a private registry so tests can build as many instances as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	jobs           *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec
	scrapeFailures prometheus.Counter
	httpRequests   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitchlens",
			Name:      "submissions_total",
			Help:      "Analysis submissions by outcome.",
		}, []string{"outcome"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitchlens",
			Name:      "jobs_completed_total",
			Help:      "Jobs that reached a terminal state, by state.",
		}, []string{"state"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pitchlens",
			Name:      "job_duration_seconds",
			Help:      "Wall time from job start to terminal state.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}, []string{"state"}),
		scrapeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pitchlens",
			Name:      "scrape_failures_total",
			Help:      "Website scrapes that fell back to the placeholder text.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pitchlens",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.submissions, m.jobs, m.jobDuration, m.scrapeFailures, m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NewServer returns an HTTP server exposing /metrics on port. The caller starts and stops it.
func (m *Metrics) NewServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveJob(state models.JobState, d time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(state.String()).Inc()
	m.jobDuration.WithLabelValues(state.String()).Observe(d.Seconds())
}

func (m *Metrics) ObserveScrapeFailure() {
	if m == nil {
		return
	}
	m.scrapeFailures.Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
}
