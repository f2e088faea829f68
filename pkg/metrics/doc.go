/*
Package metrics provides Prometheus metrics collection and exposition for the
context runtime.

The metrics package defines and registers all runtime metrics using the
Prometheus client library, providing observability into scheduler worker
state, ingest (CAE) throughput, blob placement (CTE), and admin RPC
transport. Metrics are exposed via an HTTP endpoint for scraping by
Prometheus servers.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  │  - Automatic Go runtime metrics             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (worker queue depth) │          │
	│  │  Counter: Monotonic increases (tasks, RPCs) │          │
	│  │  Histogram: Distributions (ingest latency)  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Worker: per-worker scheduler.Stats mirror  │          │
	│  │  CAE: ingest tasks scheduled/failed/latency │          │
	│  │  CTE: blobs stored, evictions, placement    │          │
	│  │  RPC: admin transport request count/latency │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Prometheus Server                   │          │
	│  │  - Scrapes /metrics periodically            │          │
	│  │  - Stores time series data                  │          │
	│  │  - Provides PromQL query interface          │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Thread-safe for concurrent updates

Collector:
  - Polls a StatsSource (typically admin.Service.SystemMonitor) on a
    ticker and writes the result into the Worker* gauges
  - WorkerStats is a local struct mirroring scheduler.Stats' field set so
    this package never imports pkg/scheduler

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Worker Metrics (one series per worker_id, see pkg/scheduler.Stats):

ctrt_worker_is_running{worker_id}:
  - Type: Gauge
  - Description: Whether the scheduler worker's goroutine is alive

ctrt_worker_is_active{worker_id}:
  - Type: Gauge
  - Description: Whether the worker is currently running a task

ctrt_worker_idle_iterations{worker_id}:
  - Type: Gauge
  - Description: Consecutive empty poll iterations since the last task

ctrt_worker_queued_tasks{worker_id}:
  - Type: Gauge
  - Description: Tasks queued on lanes assigned to this worker

ctrt_worker_blocked_tasks{worker_id}:
  - Type: Gauge
  - Description: Tasks parked on a co-routine primitive

ctrt_worker_periodic_tasks{worker_id}:
  - Type: Gauge
  - Description: Periodic tasks registered on this worker

ctrt_worker_suspend_period_us{worker_id}:
  - Type: Gauge
  - Description: Current backoff suspend period, in microseconds

CAE Ingest Metrics:

ctrt_cae_tasks_scheduled_total:
  - Type: Counter
  - Description: Ingest tasks dispatched by the context assimilation engine

ctrt_cae_ingest_failures_total:
  - Type: Counter
  - Description: Ingest tasks that failed to dispatch or execute

ctrt_cae_ingest_duration_seconds:
  - Type: Histogram
  - Description: Wall-clock time to run Ingest() end to end for one manifest

CTE Placement Metrics:

ctrt_cte_blobs_stored{tag}:
  - Type: Gauge
  - Description: Number of blobs currently stored under a tag

ctrt_cte_evictions_total:
  - Type: Counter
  - Description: Blob evictions triggered by target capacity pressure

ctrt_cte_placement_duration_seconds:
  - Type: Histogram
  - Description: Time taken to choose and write a blob's placement target

RPC Transport Metrics:

ctrt_rpc_requests_total{method, outcome}:
  - Type: Counter
  - Description: Admin RPCs handled, by method and outcome (ok/error)

ctrt_rpc_request_duration_seconds{method}:
  - Type: Histogram
  - Description: Admin RPC handler duration in seconds, by method

# Usage

Updating Gauge Metrics:

	import "github.com/iowarp/context-runtime/pkg/metrics"

	metrics.WorkerIsActive.WithLabelValues("0").Set(1)
	metrics.CTEBlobsStored.WithLabelValues("dataset/part-0").Set(12)

Updating Counter Metrics:

	metrics.CAETasksScheduled.Inc()
	metrics.RPCRequestsTotal.WithLabelValues("Heartbeat", "ok").Inc()

Recording Histogram Observations:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.CAEIngestDuration)

Using Timer with Labels:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.RPCRequestDuration, "SubmitBatch")

Polling worker stats into the gauges:

	source := func() []metrics.WorkerStats {
		var out []metrics.WorkerStats
		for _, s := range svc.SystemMonitor() {
			out = append(out, metrics.WorkerStats{
				WorkerID:        s.WorkerID,
				IsRunning:       s.IsRunning,
				IsActive:        s.IsActive,
				IdleIterations:  s.IdleIterations,
				NumQueuedTasks:  s.NumQueuedTasks,
				NumBlockedTasks: s.NumBlockedTasks,
				NumPeriodicTask: s.NumPeriodicTask,
				SuspendPeriodUs: s.SuspendPeriodUs,
			})
		}
		return out
	}
	collector := metrics.NewCollector(source, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	http.Handle("/metrics", metrics.Handler())
	http.ListenAndServe(":9090", nil)

# Integration Points

This package integrates with:

  - pkg/admin: SystemMonitor is the usual StatsSource backing a Collector
  - pkg/cae: increments CAETasksScheduled/CAEIngestFailures during Ingest
  - pkg/cte: the CTE* metrics are registered here, but pkg/cte does not
    update them
  - pkg/rpc: instruments every admin RPC handler
  - Prometheus: scrapes /metrics endpoint

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()

Label Discipline:
  - worker_id and tag are the only per-entity labels, both bounded by the
    number of workers/tags actually in use
  - method/outcome on the RPC metrics are bounded by the fixed RPC surface

Timer Pattern:
  - Create timer at operation start
  - Defer or explicitly call ObserveDuration
  - Automatically calculates elapsed time

Global Metrics:
  - Package-level variables for all metrics
  - Accessible from any package in this module
  - Thread-safe concurrent updates

# Troubleshooting

Missing Metrics:
  - Symptom: Metric not appearing in /metrics output
  - Check: Metric registered in init() function
  - Check: Collector.Start() was actually called if it's a worker gauge

High Cardinality:
  - Symptom: Prometheus memory usage grows
  - Cause: Passing unbounded values (container IDs, task IDs) as labels
  - Solution: Keep worker_id/tag/method as the only label dimensions

# Monitoring

Prometheus Queries (PromQL):

Worker Health:
  - Active workers: sum(ctrt_worker_is_active)
  - Queue depth: sum(ctrt_worker_queued_tasks)
  - Blocked tasks: sum(ctrt_worker_blocked_tasks)

Ingest Performance:
  - Schedule rate: rate(ctrt_cae_tasks_scheduled_total[1m])
  - Failure rate: rate(ctrt_cae_ingest_failures_total[5m])
  - p95 ingest latency: histogram_quantile(0.95, ctrt_cae_ingest_duration_seconds_bucket)

RPC Performance:
  - Request rate: rate(ctrt_rpc_requests_total[1m])
  - Error rate: rate(ctrt_rpc_requests_total{outcome="error"}[1m])
  - p99 latency: histogram_quantile(0.99, ctrt_rpc_request_duration_seconds_bucket)

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
