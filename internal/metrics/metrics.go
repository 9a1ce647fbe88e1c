package metrics

import (
	"net/http"

	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orgcontributors"

// Metrics collects job and fetch metrics. Implements app.Observer.
// Each instance uses its own registry, so it's safe to create many of them.
type Metrics struct {
	registry *prometheus.Registry

	jobsStarted     *prometheus.CounterVec
	jobsFinished    *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	fetchesDegraded *prometheus.CounterVec
}

var _ app.Observer = &Metrics{}

// New creates Metrics with registered collectors.
func New() *Metrics {
	m := Metrics{
		registry: prometheus.NewRegistry(),
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "Number of started loading jobs.",
		}, []string{"variant"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Number of finished loading jobs by final state.",
		}, []string{"variant", "state"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Loading job duration.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"variant"}),
		fetchesDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_degraded_total",
			Help:      "Number of failed github calls replaced with empty lists.",
		}, []string{"call"}),
	}
	m.registry.MustRegister(
		m.jobsStarted,
		m.jobsFinished,
		m.jobDuration,
		m.fetchesDegraded,
		collectors.NewGoCollector(),
	)

	return &m
}

// JobStarted counts started job.
func (m *Metrics) JobStarted(v app.Variant) {
	m.jobsStarted.WithLabelValues(v.String()).Inc()
}

// JobFinished counts finished job and observes its duration.
func (m *Metrics) JobFinished(v app.Variant, s app.Status) {
	m.jobsFinished.WithLabelValues(v.String(), s.State.String()).Inc()
	m.jobDuration.WithLabelValues(v.String()).Observe(s.Elapsed.Seconds())
}

// FetchDegraded counts failed github call.
func (m *Metrics) FetchDegraded(call string) {
	m.fetchesDegraded.WithLabelValues(call).Inc()
}

// Handler returns http handler serving metrics in prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
