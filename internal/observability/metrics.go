package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fluffyduck",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fluffyduck",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	aiCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fluffyduck",
			Subsystem: "ai",
			Name:      "calls_total",
			Help:      "Calls to generative AI providers by provider, operation and outcome.",
		},
		[]string{"provider", "operation", "success"},
	)
	aiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fluffyduck",
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "Generative AI call duration in seconds.",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		},
		[]string{"provider", "operation"},
	)
	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fluffyduck",
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Campaign dispatch attempts by driver and outcome.",
		},
		[]string{"driver", "status"},
	)
	scheduledRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fluffyduck",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduler ticks that looked for due campaigns.",
		},
	)

	scheduledStarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fluffyduck",
			Subsystem: "scheduler",
			Name:      "campaigns_started_total",
			Help:      "Scheduled campaigns the ticker has started.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, aiCalls, aiDuration, dispatches, scheduledRuns, scheduledStarts)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

func RecordAICall(provider, operation string, duration time.Duration, success bool) {
	RegisterMetrics()
	aiCalls.WithLabelValues(provider, operation, strconv.FormatBool(success)).Inc()
	aiDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

func RecordDispatch(driver, status string) {
	RegisterMetrics()
	dispatches.WithLabelValues(driver, status).Inc()
}

func RecordScheduledRun() {
	RegisterMetrics()
	scheduledRuns.Inc()
}

func RecordScheduledStarts(n int) {
	RegisterMetrics()
	scheduledStarts.Add(float64(n))
}
