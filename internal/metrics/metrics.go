package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_provider_requests_total",
			Help: "Total number of provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geotrack_provider_request_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"provider"},
	)

	ProviderTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_provider_tokens_total",
			Help: "Tokens reported by providers",
		},
		[]string{"provider"},
	)

	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_executions_total",
			Help: "Prompt executions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	VisibilityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geotrack_visibility_score",
			Help:    "Distribution of visibility scores",
			Buckets: []float64{0, 10, 25, 30, 50, 60, 75, 80, 90, 100},
		},
	)

	JobItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_job_items_total",
			Help: "Batch job items processed by outcome",
		},
		[]string{"outcome"},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geotrack_jobs_active",
			Help: "Number of batch jobs currently running",
		},
	)

	JobSlotsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geotrack_job_slots_in_use",
			Help: "Executions holding a slot of the global job concurrency cap",
		},
	)

	TopicsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_topics_classified_total",
			Help: "Deferred topic classifications by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrack_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geotrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ObserveProvider records one provider call.
func ObserveProvider(provider, outcome string, elapsed time.Duration, tokens int) {
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if tokens > 0 {
		ProviderTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
