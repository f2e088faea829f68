package metrics

import (
	"strconv"
	"time"
)

// WorkerStats is the subset of scheduler.Stats the collector needs. It is
// duplicated here (rather than importing pkg/scheduler) so pkg/metrics
// stays a leaf package with no dependency on the runtime it observes.
type WorkerStats struct {
	WorkerID        uint32
	IsRunning       bool
	IsActive        bool
	IdleIterations  uint64
	NumQueuedTasks  uint64
	NumBlockedTasks uint64
	NumPeriodicTask uint64
	SuspendPeriodUs uint64
}

// StatsSource supplies the current per-worker snapshot to poll, typically
// admin.Service.SystemMonitor.
type StatsSource func() []WorkerStats

// Collector periodically samples a StatsSource into the Worker* gauges.
type Collector struct {
	source StatsSource
	period time.Duration
	stopCh chan struct{}
}

// NewCollector creates a Collector that polls source every period.
func NewCollector(source StatsSource, period time.Duration) *Collector {
	if period <= 0 {
		period = 15 * time.Second
	}
	return &Collector{source: source, period: period, stopCh: make(chan struct{})}
}

// Start begins polling in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.period)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts polling.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	for _, s := range c.source() {
		id := strconv.FormatUint(uint64(s.WorkerID), 10)

		WorkerIsRunning.WithLabelValues(id).Set(boolToFloat(s.IsRunning))
		WorkerIsActive.WithLabelValues(id).Set(boolToFloat(s.IsActive))
		WorkerIdleIterations.WithLabelValues(id).Set(float64(s.IdleIterations))
		WorkerQueuedTasks.WithLabelValues(id).Set(float64(s.NumQueuedTasks))
		WorkerBlockedTasks.WithLabelValues(id).Set(float64(s.NumBlockedTasks))
		WorkerPeriodicTasks.WithLabelValues(id).Set(float64(s.NumPeriodicTask))
		WorkerSuspendPeriodUs.WithLabelValues(id).Set(float64(s.SuspendPeriodUs))
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
