package scheduler

import "sync/atomic"

// Stats mirrors the per-worker fields SystemMonitor reports (spec.md
// 4.F): worker_id, is_running, is_active, idle_iterations,
// num_queued_tasks, num_blocked_tasks, num_periodic_tasks,
// suspend_period_us.
type Stats struct {
	WorkerID        uint32 `json:"worker_id"`
	IsRunning       bool   `json:"is_running"`
	IsActive        bool   `json:"is_active"`
	IdleIterations  uint64 `json:"idle_iterations"`
	NumQueuedTasks  uint64 `json:"num_queued_tasks"`
	NumBlockedTasks uint64 `json:"num_blocked_tasks"`
	NumPeriodicTask uint64 `json:"num_periodic_tasks"`
	SuspendPeriodUs uint64 `json:"suspend_period_us"`
}

// counters is the atomic backing store a Worker mutates from its own
// goroutine and Stats() reads from any goroutine (the admin/monitor
// path).
type counters struct {
	running      atomic.Bool
	active       atomic.Bool
	idleIters    atomic.Uint64
	blockedTasks atomic.Uint64
	periodicTask atomic.Uint64
	suspendUs    atomic.Uint64
}
