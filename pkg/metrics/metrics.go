package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler worker gauges, one series per worker_id, mirroring
	// scheduler.Stats' field set exactly so SystemMonitor's JSON and its
	// Prometheus export carry the same numbers.
	WorkerIsRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_is_running",
			Help: "Whether the scheduler worker's goroutine is alive (1) or stopped (0)",
		},
		[]string{"worker_id"},
	)

	WorkerIsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_is_active",
			Help: "Whether the scheduler worker is currently running a task (1) or idle (0)",
		},
		[]string{"worker_id"},
	)

	WorkerIdleIterations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_idle_iterations",
			Help: "Consecutive empty poll iterations since the worker last ran a task",
		},
		[]string{"worker_id"},
	)

	WorkerQueuedTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_queued_tasks",
			Help: "Tasks currently queued on lanes assigned to this worker",
		},
		[]string{"worker_id"},
	)

	WorkerBlockedTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_blocked_tasks",
			Help: "Tasks parked on this worker waiting on a co-routine primitive",
		},
		[]string{"worker_id"},
	)

	WorkerPeriodicTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_periodic_tasks",
			Help: "Periodic tasks registered on this worker",
		},
		[]string{"worker_id"},
	)

	WorkerSuspendPeriodUs = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_worker_suspend_period_us",
			Help: "Current backoff suspend period for this worker, in microseconds",
		},
		[]string{"worker_id"},
	)

	// CAE ingest metrics.
	CAETasksScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ctrt_cae_tasks_scheduled_total",
			Help: "Total number of ingest tasks dispatched by the context assimilation engine",
		},
	)

	CAEIngestFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ctrt_cae_ingest_failures_total",
			Help: "Total number of ingest tasks that failed to dispatch or execute",
		},
	)

	CAEIngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ctrt_cae_ingest_duration_seconds",
			Help:    "Wall-clock time to run Ingest() end to end for one manifest",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CTE placement metrics.
	CTEBlobsStored = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ctrt_cte_blobs_stored",
			Help: "Number of blobs currently stored under a tag",
		},
		[]string{"tag"},
	)

	CTEEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ctrt_cte_evictions_total",
			Help: "Total number of blob evictions triggered by target capacity pressure",
		},
	)

	CTEPlacementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ctrt_cte_placement_duration_seconds",
			Help:    "Time taken to choose and write a blob's placement target",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RPC transport metrics.
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ctrt_rpc_requests_total",
			Help: "Total number of admin RPCs handled, by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ctrt_rpc_request_duration_seconds",
			Help:    "Admin RPC handler duration in seconds, by method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		WorkerIsRunning,
		WorkerIsActive,
		WorkerIdleIterations,
		WorkerQueuedTasks,
		WorkerBlockedTasks,
		WorkerPeriodicTasks,
		WorkerSuspendPeriodUs,
		CAETasksScheduled,
		CAEIngestFailures,
		CAEIngestDuration,
		CTEBlobsStored,
		CTEEvictions,
		CTEPlacementDuration,
		RPCRequestsTotal,
		RPCRequestDuration,
	)
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
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
