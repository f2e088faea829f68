package ipc

import (
	"sync/atomic"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// DefaultLaneCapacity is the ring size used when a caller does not pick
// one explicitly. Must be a power of two.
const DefaultLaneCapacity = 1024

const unassignedWorker = ^uint64(0)

// laneSlot is one cell of a lane's ring buffer: a sequence number guards
// which producer/consumer generation owns the cell, per the classic
// bounded MPMC ring buffer discipline (here used MPSC: many producers,
// one consumer at a time).
type laneSlot struct {
	seq  uint64
	task *types.Task
}

// Lane is one ingress queue: a bounded lock-free MPSC ring plus the
// control fields the worker scheduler's scan-list reads every tick
// without touching the ring itself.
type Lane struct {
	ID     types.LaneId
	PoolID types.PoolId

	slots []laneSlot
	mask  uint64

	enqueueCursor uint64 // producer reservation cursor, CAS-advanced
	dequeueCursor uint64 // consumer cursor, touched only by the owning worker

	assignedWorker uint64 // atomic types.WorkerId; unassignedWorker if none
	taskCount      int64  // atomic
	isEnqueued     int32  // atomic bool, 1 while taskCount > 0
}

// NewLane allocates a lane with the given ring capacity, rounded up to
// the next power of two.
func NewLane(id types.LaneId, pool types.PoolId, capacity int) *Lane {
	capacity = nextPow2(capacity)
	l := &Lane{
		ID:     id,
		PoolID: pool,
		slots:  make([]laneSlot, capacity),
		mask:   uint64(capacity - 1),
	}
	atomic.StoreUint64(&l.assignedWorker, unassignedWorker)
	for i := range l.slots {
		l.slots[i].seq = uint64(i)
	}
	return l
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Push enqueues a task, returning taxonomy.QueueFull if the ring is at
// capacity. Safe for any number of concurrent callers.
func (l *Lane) Push(task *types.Task) error {
	for {
		pos := atomic.LoadUint64(&l.enqueueCursor)
		slot := &l.slots[pos&l.mask]
		seq := atomic.LoadUint64(&slot.seq)
		diff := int64(seq) - int64(pos)
		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&l.enqueueCursor, pos, pos+1) {
				slot.task = task
				atomic.StoreUint64(&slot.seq, pos+1)
				atomic.AddInt64(&l.taskCount, 1)
				atomic.StoreInt32(&l.isEnqueued, 1)
				return nil
			}
		case diff < 0:
			return taxonomy.New(taxonomy.QueueFull)
		default:
			// Another producer has already reserved this slot's
			// generation; retry with the newest cursor.
		}
	}
}

// Pop dequeues the next task if one is available. ok is false when the
// lane is empty, which is not an error: the scheduler simply moves on to
// the next lane in its scan-list. Must only be called by the worker
// currently assigned to this lane.
func (l *Lane) Pop() (*types.Task, bool) {
	pos := l.dequeueCursor
	slot := &l.slots[pos&l.mask]
	seq := atomic.LoadUint64(&slot.seq)
	if int64(seq)-int64(pos+1) != 0 {
		return nil, false
	}
	task := slot.task
	slot.task = nil
	l.dequeueCursor = pos + 1
	atomic.StoreUint64(&slot.seq, pos+l.mask+1)
	if atomic.AddInt64(&l.taskCount, -1) == 0 {
		atomic.StoreInt32(&l.isEnqueued, 0)
	}
	return task, true
}

// IsEnqueued reports whether the lane currently holds at least one task.
func (l *Lane) IsEnqueued() bool {
	return atomic.LoadInt32(&l.isEnqueued) == 1
}

// TaskCount returns the lane's current queue depth.
func (l *Lane) TaskCount() int64 {
	return atomic.LoadInt64(&l.taskCount)
}

// AssignedWorker returns the worker currently owning this lane, and false
// if no worker has claimed it yet.
func (l *Lane) AssignedWorker() (types.WorkerId, bool) {
	v := atomic.LoadUint64(&l.assignedWorker)
	if v == unassignedWorker {
		return 0, false
	}
	return types.WorkerId(v), true
}

// TryAssign attempts to claim the lane for worker id, succeeding only if
// the lane is currently unassigned or already owned by id.
func (l *Lane) TryAssign(id types.WorkerId) bool {
	for {
		cur := atomic.LoadUint64(&l.assignedWorker)
		if cur == uint64(id) {
			return true
		}
		if cur != unassignedWorker {
			return false
		}
		if atomic.CompareAndSwapUint64(&l.assignedWorker, cur, uint64(id)) {
			return true
		}
	}
}

// Release relinquishes worker id's claim on the lane, making it eligible
// for reassignment (e.g. the worker is idling out or shutting down).
func (l *Lane) Release(id types.WorkerId) {
	atomic.CompareAndSwapUint64(&l.assignedWorker, uint64(id), unassignedWorker)
}
