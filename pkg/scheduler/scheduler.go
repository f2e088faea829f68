package scheduler

import (
	"sync"

	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/log"
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
	"github.com/rs/zerolog"
)

// Scheduler owns a fixed pool of workers and assigns newly registered
// lanes to them round-robin. It is the top-level handle pkg/admin and
// cmd/ctrt hold to start/stop the runtime's worker pool and read back
// SystemMonitor-shaped stats.
type Scheduler struct {
	fabric   *ipc.Fabric
	registry *registry.Registry
	logger   zerolog.Logger

	mu      sync.Mutex
	workers []*Worker
	next    int
}

// New creates a scheduler with numWorkers workers, none yet started.
func New(fabric *ipc.Fabric, reg *registry.Registry, numWorkers int, onFatal FatalHandler) *Scheduler {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	s := &Scheduler{
		fabric:   fabric,
		registry: reg,
		logger:   log.WithComponent("scheduler"),
	}
	for i := 0; i < numWorkers; i++ {
		s.workers = append(s.workers, NewWorker(types.WorkerId(i), fabric, reg, onFatal))
	}
	return s
}

// Start starts every worker's scan loop.
func (s *Scheduler) Start() {
	for _, w := range s.workers {
		w.Start()
	}
	s.logger.Info().Int("workers", len(s.workers)).Msg("scheduler started")
}

// Stop stops every worker, waiting for in-flight batches to drain.
func (s *Scheduler) Stop() {
	for _, w := range s.workers {
		w.Stop()
	}
	s.logger.Info().Msg("scheduler stopped")
}

// AssignPool claims every lane of pool round-robin across the worker
// pool. Call this once after pkg/ipc.Fabric.RegisterPool so the new
// lanes actually get scanned by someone.
func (s *Scheduler) AssignPool(pool types.PoolId) {
	lanes := s.fabric.LanesForPool(pool)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lane := range lanes {
		w := s.workers[s.next%len(s.workers)]
		s.next++
		if !w.AddLane(lane) {
			// Already owned (idempotent re-assignment call); skip.
			continue
		}
	}
}

// Rebalance reassigns lane to a specific worker id, CAS-releasing it from
// whichever worker currently holds it. Nothing in this repository calls
// it; admin.Service.MigrateContainers does not reassign lanes.
func (s *Scheduler) Rebalance(lane *ipc.Lane, to types.WorkerId) error {
	owner, ok := lane.AssignedWorker()
	if ok {
		lane.Release(owner)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		if w.ID == to {
			if !w.AddLane(lane) {
				return taxonomy.New(taxonomy.Unreachable)
			}
			return nil
		}
	}
	return taxonomy.New(taxonomy.ContainerNotFnd)
}

// Stats returns a SystemMonitor-shaped snapshot for every worker.
func (s *Scheduler) Stats() []Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Stats, len(s.workers))
	for i, w := range s.workers {
		out[i] = w.Stats()
	}
	return out
}

// NumWorkers returns how many workers the scheduler owns.
func (s *Scheduler) NumWorkers() int {
	return len(s.workers)
}
