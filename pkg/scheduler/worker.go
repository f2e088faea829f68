package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/log"
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultBatchSize is how many tasks a worker dequeues from a lane
	// per scan-list visit before moving to the next lane.
	DefaultBatchSize = 32
	// DefaultSuspendFloor is the suspend period a worker starts at and
	// resets to on every successful dequeue.
	DefaultSuspendFloor = 100 * time.Microsecond
	// DefaultSuspendCap bounds the exponential backoff of an idling
	// worker's suspend period.
	DefaultSuspendCap = 50 * time.Millisecond
	// idleDoublingThreshold is how many consecutive empty scans trigger
	// the next doubling of the suspend period.
	idleDoublingThreshold = 8
)

// FatalHandler is invoked when a module marks a task's container for
// destruction (spec.md 4.E "module may voluntarily mark a task fatal").
type FatalHandler func(pool types.PoolId, container types.ContainerId)

// Worker owns a rotating scan list of lanes and runs the tasks it
// dequeues from them to completion.
type Worker struct {
	ID       types.WorkerId
	fabric   *ipc.Fabric
	registry *registry.Registry
	logger   zerolog.Logger

	batchSize     int
	suspendFloor  time.Duration
	suspendCap    time.Duration
	onFatal       FatalHandler

	mu       sync.Mutex
	scanList []*ipc.Lane
	cursor   int

	counters counters
	stopCh   chan struct{}
	stopped  chan struct{}
}

// NewWorker creates a worker with default batch size and idle policy.
func NewWorker(id types.WorkerId, fabric *ipc.Fabric, reg *registry.Registry, onFatal FatalHandler) *Worker {
	w := &Worker{
		ID:           id,
		fabric:       fabric,
		registry:     reg,
		logger:       log.WithWorkerID(uint32(id)),
		batchSize:    DefaultBatchSize,
		suspendFloor: DefaultSuspendFloor,
		suspendCap:   DefaultSuspendCap,
		onFatal:      onFatal,
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	w.counters.suspendUs.Store(uint64(DefaultSuspendFloor.Microseconds()))
	return w
}

// AddLane claims lane for this worker (CAS on assigned_worker_id) and
// appends it to the scan list. Returns false if another worker already
// owns it.
func (w *Worker) AddLane(lane *ipc.Lane) bool {
	if !lane.TryAssign(w.ID) {
		return false
	}
	w.mu.Lock()
	w.scanList = append(w.scanList, lane)
	w.mu.Unlock()
	return true
}

// Start runs the scan loop in a new goroutine.
func (w *Worker) Start() {
	w.counters.running.Store(true)
	go w.run()
}

// Stop signals the scan loop to exit and waits for it to finish.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stopped
	w.counters.running.Store(false)
}

func (w *Worker) run() {
	defer close(w.stopped)
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		lane := w.nextLane()
		if lane == nil {
			w.idle()
			continue
		}

		owner, ok := lane.AssignedWorker()
		if !ok || owner != w.ID {
			w.dropLane(lane)
			continue
		}

		if !lane.IsEnqueued() {
			continue
		}

		dequeued := w.drainBatch(lane)
		if dequeued == 0 {
			w.idle()
		} else {
			w.resetIdle()
		}
	}
}

func (w *Worker) nextLane() *ipc.Lane {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.scanList) == 0 {
		return nil
	}
	lane := w.scanList[w.cursor%len(w.scanList)]
	w.cursor++
	return lane
}

func (w *Worker) dropLane(lane *ipc.Lane) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, l := range w.scanList {
		if l == lane {
			w.scanList = append(w.scanList[:i], w.scanList[i+1:]...)
			break
		}
	}
}

func (w *Worker) drainBatch(lane *ipc.Lane) int {
	n := 0
	var wg sync.WaitGroup
	for n < w.batchSize {
		task, ok := lane.Pop()
		if !ok {
			break
		}
		n++
		wg.Add(1)
		w.counters.active.Store(true)
		go func(task *types.Task) {
			defer wg.Done()
			w.execute(task)
		}(task)
	}
	wg.Wait()
	w.counters.active.Store(false)
	return n
}

// execute dispatches one task, never letting a panic escape the task
// boundary: the future is marked error instead.
func (w *Worker) execute(task *types.Task) {
	future, ok := w.fabric.LookupFuture(task.FutureID)
	if !ok {
		w.logger.Warn().Str("task_id", string(task.ID)).Msg("no future registered for task")
		return
	}
	if !future.Running() {
		// Future left pending (e.g. cancelled before we got to it).
		return
	}

	ctx := withCounters(context.Background(), &w.counters)
	result, err := w.safeDispatch(ctx, task)
	if err != nil {
		if rerr, ok := err.(*taxonomy.RuntimeError); ok && rerr.Code == taxonomy.Fatal && w.onFatal != nil {
			w.onFatal(task.PoolID, task.ContainerID)
		}
		future.Fail(toRuntimeError(err))
		return
	}
	future.Complete(result)
}

func (w *Worker) safeDispatch(ctx context.Context, task *types.Task) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Interface("panic", r).Str("task_id", string(task.ID)).Msg("module.run panicked")
			err = taxonomy.Wrap(taxonomy.Fatal, fmt.Errorf("panic: %v", r))
		}
	}()
	return w.registry.Dispatch(ctx, task)
}

func toRuntimeError(err error) *taxonomy.RuntimeError {
	if rerr, ok := err.(*taxonomy.RuntimeError); ok {
		return rerr
	}
	return taxonomy.Wrap(taxonomy.Fatal, err)
}

func (w *Worker) idle() {
	iters := w.counters.idleIters.Add(1)
	if iters%idleDoublingThreshold == 0 {
		cur := time.Duration(w.counters.suspendUs.Load()) * time.Microsecond
		next := cur * 2
		if next > w.suspendCap {
			next = w.suspendCap
		}
		w.counters.suspendUs.Store(uint64(next.Microseconds()))
	}
	time.Sleep(time.Duration(w.counters.suspendUs.Load()) * time.Microsecond)
}

func (w *Worker) resetIdle() {
	w.counters.idleIters.Store(0)
	w.counters.suspendUs.Store(uint64(w.suspendFloor.Microseconds()))
}

// Stats snapshots this worker's SystemMonitor-shaped counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	queued := 0
	for _, l := range w.scanList {
		queued += int(l.TaskCount())
	}
	w.mu.Unlock()
	return Stats{
		WorkerID:        uint32(w.ID),
		IsRunning:       w.counters.running.Load(),
		IsActive:        w.counters.active.Load(),
		IdleIterations:  w.counters.idleIters.Load(),
		NumQueuedTasks:  uint64(queued),
		NumBlockedTasks: w.counters.blockedTasks.Load(),
		NumPeriodicTask: w.counters.periodicTask.Load(),
		SuspendPeriodUs: w.counters.suspendUs.Load(),
	}
}
