/*
Package scheduler implements the cooperative task scheduler: the worker
loop that scans ingress lanes, claims tasks, and runs module code to
completion.

Each Worker owns a rotating scan list of lanes (*ipc.Lane) assigned to it.
One scan iteration pops the next lane, skips it if IsEnqueued is false,
dequeues up to a batch of tasks, and runs each task's module method to
completion. A task's module.Run body is expected to cooperate through the
CoMutex/CoRwLock/CoFuture primitives in this package rather than blocking
the worker outright; in this Go port that cooperation is real goroutine
parking (a task runs on its own goroutine, so blocking on a co-primitive
only costs that goroutine, never the worker's scan loop) rather than the
hand-rolled continuation stacks the design sketches for a language
without green threads, since the worker goroutine itself never blocks on a
task's behalf.

Idle workers double their suspend period (capped) after a run of empty
scans and reset to the floor on the next successful dequeue; this is
tracked per worker and surfaced through Stats for the admin SystemMonitor
call and the `monitor` CLI.

Lane reassignment (Scheduler.Rebalance) is a compare-and-swap on the
lane's assigned_worker_id; a worker that scans a lane it no longer owns
silently drops it from its scan list instead of dequeuing from it. No
caller invokes Rebalance: container migration in pkg/admin only rewrites
the pool's route and leaves lane ownership unchanged.
*/
package scheduler
