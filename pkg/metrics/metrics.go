package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// JobsTotal counts job catalog entries observed (created/replaced).
	JobsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scheduler_jobs_total",
			Help: "Total number of job catalog entries created or replaced",
		},
	)

	// TriggerFiresTotal counts trigger fires by job name and trigger kind.
	TriggerFiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_trigger_fires_total",
			Help: "Total number of times a job trigger fired, by job and trigger kind",
		},
		[]string{"job", "kind"},
	)

	// ComposeInvocationsTotal counts compose CLI invocations by subcommand and outcome.
	ComposeInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compose_invocations_total",
			Help: "Total number of compose CLI invocations by subcommand and outcome",
		},
		[]string{"subcommand", "outcome"},
	)

	// ComposeDuration records compose CLI invocation latency.
	ComposeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "compose_duration_seconds",
			Help:    "Compose CLI invocation duration in seconds by subcommand",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subcommand"},
	)

	// ACLSyncReconcileDuration records one reconcile pass's duration.
	ACLSyncReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aclsync_reconcile_duration_seconds",
			Help:    "ACL reconciliation pass duration in seconds by target",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)

	// ACLSyncCommandsTotal counts dynamic-security / policy commands applied.
	ACLSyncCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aclsync_commands_total",
			Help: "Total number of ACL commands applied by target and operation",
		},
		[]string{"target", "operation"},
	)

	// APIRequestsTotal counts admin API requests by method and status.
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_api_requests_total",
			Help: "Total number of admin API requests by method and status",
		},
		[]string{"method", "status"},
	)

	// APIRequestDuration records admin API request latency.
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_api_request_duration_seconds",
			Help:    "Admin API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(TriggerFiresTotal)
	prometheus.MustRegister(ComposeInvocationsTotal)
	prometheus.MustRegister(ComposeDuration)
	prometheus.MustRegister(ACLSyncReconcileDuration)
	prometheus.MustRegister(ACLSyncCommandsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
