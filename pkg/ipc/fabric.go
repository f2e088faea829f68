package ipc

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// LanesPerContainer is the default fan-out spreading one container's
// traffic across multiple ingress lanes.
const LanesPerContainer = 4

type poolLanes struct {
	lanes []*Lane
}

// Fabric is the new_task/send/wait/cancel front door. It owns no worker
// threads; pkg/scheduler scans the lanes Fabric exposes via AllLanes/
// LanesForPool.
type Fabric struct {
	mu    sync.RWMutex
	pools map[types.PoolId]*poolLanes

	futuresMu sync.RWMutex
	futures   map[types.TaskId]*types.Future

	laneCapacity int
	shuttingDown atomic.Bool
}

// NewFabric creates an empty fabric. laneCapacity <= 0 uses
// DefaultLaneCapacity.
func NewFabric(laneCapacity int) *Fabric {
	if laneCapacity <= 0 {
		laneCapacity = DefaultLaneCapacity
	}
	return &Fabric{
		pools:        make(map[types.PoolId]*poolLanes),
		futures:      make(map[types.TaskId]*types.Future),
		laneCapacity: laneCapacity,
	}
}

// RegisterPool creates lanesPerContainer lanes for pool if none exist
// yet. Idempotent: calling it again for an already-registered pool just
// returns the existing lanes.
func (f *Fabric) RegisterPool(pool types.PoolId, lanesPerContainer int) []*Lane {
	if lanesPerContainer <= 0 {
		lanesPerContainer = LanesPerContainer
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pl, ok := f.pools[pool]; ok {
		return pl.lanes
	}
	lanes := make([]*Lane, lanesPerContainer)
	for i := range lanes {
		lanes[i] = NewLane(types.LaneId(i), pool, f.laneCapacity)
	}
	f.pools[pool] = &poolLanes{lanes: lanes}
	return lanes
}

func (f *Fabric) poolLanesFor(pool types.PoolId) []*Lane {
	f.mu.RLock()
	pl, ok := f.pools[pool]
	f.mu.RUnlock()
	if ok {
		return pl.lanes
	}
	return f.RegisterPool(pool, LanesPerContainer)
}

func (f *Fabric) laneFor(task *types.Task) *Lane {
	lanes := f.poolLanesFor(task.PoolID)
	idx := laneHash(task.PoolID, task.ContainerID) % uint32(len(lanes))
	if task.LaneHint != nil {
		idx = uint32(*task.LaneHint) % uint32(len(lanes))
	}
	return lanes[idx]
}

func laneHash(pool types.PoolId, container types.ContainerId) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d.%d:%d", pool.Major, pool.Minor, container)
	return h.Sum32()
}

// NewTask builds a task/future pair and registers the future so Wait and
// remote completion callbacks can find it by id. The task is not yet
// enqueued; call Send to hand it to a lane.
func (f *Fabric) NewTask(pool types.PoolId, container types.ContainerId, method types.MethodId, query types.PoolQuery, payload []byte) (*types.Task, *types.Future) {
	id := types.NewTaskId()
	task := &types.Task{
		ID:          id,
		PoolID:      pool,
		ContainerID: container,
		MethodID:    method,
		Query:       query,
		Payload:     payload,
		FutureID:    id,
		SubmittedAt: time.Now(),
	}
	future := types.NewFuture(id)
	f.futuresMu.Lock()
	f.futures[id] = future
	f.futuresMu.Unlock()
	return task, future
}

// Send enqueues task onto its derived (or hinted) lane.
func (f *Fabric) Send(task *types.Task) error {
	if f.shuttingDown.Load() {
		return taxonomy.New(taxonomy.RuntimeShutdown)
	}
	return f.laneFor(task).Push(task)
}

// Wait blocks until future reaches a terminal state or ctx is cancelled.
// On context cancellation the future itself is left untouched; callers
// that want to give up on a task entirely should also call Cancel.
func (f *Fabric) Wait(ctx context.Context, future *types.Future) (types.FutureState, []byte, *taxonomy.RuntimeError) {
	done := make(chan struct{})
	if !future.AddWaker(func() { close(done) }) {
		return future.Poll()
	}
	select {
	case <-done:
		return future.Poll()
	case <-ctx.Done():
		state, result, _ := future.Poll()
		return state, result, taxonomy.New(taxonomy.Timeout)
	}
}

// Cancel cancels future if it has not started running yet.
func (f *Fabric) Cancel(future *types.Future) bool {
	return future.Cancel()
}

// LookupFuture finds a registered future by the id it was created with.
func (f *Fabric) LookupFuture(id types.TaskId) (*types.Future, bool) {
	f.futuresMu.RLock()
	defer f.futuresMu.RUnlock()
	fut, ok := f.futures[id]
	return fut, ok
}

// Forget drops a future from the registry once every waiter has observed
// its terminal state.
func (f *Fabric) Forget(id types.TaskId) {
	f.futuresMu.Lock()
	delete(f.futures, id)
	f.futuresMu.Unlock()
}

// LanesForPool exposes one pool's lanes for the scheduler's scan-list.
func (f *Fabric) LanesForPool(pool types.PoolId) []*Lane {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if pl, ok := f.pools[pool]; ok {
		return pl.lanes
	}
	return nil
}

// AllLanes returns every lane across every registered pool: the default
// scan-list for a worker with no pinned pool assignment.
func (f *Fabric) AllLanes() []*Lane {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Lane, 0)
	for _, pl := range f.pools {
		out = append(out, pl.lanes...)
	}
	return out
}

// Shutdown stops accepting new sends; in-flight tasks already enqueued
// still drain normally.
func (f *Fabric) Shutdown() {
	f.shuttingDown.Store(true)
}

// IsShuttingDown reports whether Shutdown has been called.
func (f *Fabric) IsShuttingDown() bool {
	return f.shuttingDown.Load()
}
