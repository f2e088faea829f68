/*
Package ipc implements the ingress lane fabric: the new_task/send/wait/
cancel front door every caller of the runtime goes through, whether they
are local code submitting work or an admin request arriving off the wire.

A lane is a bounded, lock-free MPSC ring buffer (the Vyukov bounded-queue
discipline restricted to a single consumer): any number of goroutines may
Push a task concurrently, but only the worker currently assigned to a
lane ever Pops from it. Each pool owns a fixed number of lanes; a task's
lane is hash(pool_id, container_id) mod len(lanes) unless its LaneHint
pins it to a specific lane (used by the admin pool's well-known control
lane and by callers wanting strict per-container ordering).

Every lane also carries an IsEnqueued flag, flipped whenever its task
count crosses zero. The scheduler's scan-list skips lanes with the flag
clear rather than dequeuing an empty ring on every tick; pkg/scheduler
depends on that invariant holding (spec.md 5, 8).

Futures are tracked in each Fabric's table keyed by task id so Wait can
look one up by id alone; the Future type itself (pending/running parking,
wakers) lives in pkg/types since module code completes futures directly
without going through the fabric.
*/
package ipc
