package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
	"github.com/rs/zerolog"

	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/log"
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/scheduler"
	"github.com/iowarp/context-runtime/pkg/segment"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// Admin method ids. 0, 1 and 9 (Create/Destroy/Monitor) are the
// lifecycle ids every module inherits; everything from MethodFirstUser
// up is admin-specific.
const (
	MethodGetOrCreatePool = types.MethodFirstUser + iota
	MethodDestroyPool
	MethodStopRuntime
	MethodSubmitBatch
	MethodRegisterMemory
	MethodMigrateContainers
	MethodHeartbeat
	MethodHeartbeatProbe
	MethodAnnounceShutdown
)

// ModuleName is the name the admin module is registered under.
const ModuleName = "admin"

// Config configures a new Service.
type Config struct {
	NodeID   types.NodeId
	BindAddr string
	DataDir  string
}

// MigrationRequest names one container to move to a destination node.
type MigrationRequest struct {
	PoolID      types.PoolId      `json:"pool_id"`
	ContainerID types.ContainerId `json:"container_id"`
	DestNodeID  types.NodeId      `json:"dest_node_id"`
}

// MigrationResult is MigrateContainers' return shape.
type MigrationResult struct {
	NumMigrated int    `json:"num_migrated"`
	Diagnostic  string `json:"diagnostic,omitempty"`
}

// Service is the built-in admin container bound to pool (0,0).
type Service struct {
	nodeID   types.NodeId
	bindAddr string
	dataDir  string

	raft      *raft.Raft
	directory *RouteDirectory

	registry  *registry.Registry
	fabric    *ipc.Fabric
	scheduler *scheduler.Scheduler

	logger zerolog.Logger
}

// New creates a Service bound to the given registry/fabric/scheduler
// triple. Bootstrap must be called before the Raft-backed operations
// (MigrateContainers, Heartbeat) are usable.
func New(cfg Config, reg *registry.Registry, fabric *ipc.Fabric, sched *scheduler.Scheduler) *Service {
	return &Service{
		nodeID:    cfg.NodeID,
		bindAddr:  cfg.BindAddr,
		dataDir:   cfg.DataDir,
		directory: NewRouteDirectory(),
		registry:  reg,
		fabric:    fabric,
		scheduler: sched,
		logger:    log.WithComponent("admin"),
	}
}

// Bootstrap stands up a single-node Raft cluster over the route
// directory FSM, using a BoltDB log/stable store and TCP transport.
func (s *Service) Bootstrap() error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("admin: create data dir: %w", err)
	}

	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(fmt.Sprintf("%d", s.nodeID))
	config.HeartbeatTimeout = 500 * time.Millisecond
	config.ElectionTimeout = 500 * time.Millisecond
	config.LeaderLeaseTimeout = 250 * time.Millisecond

	addr, err := net.ResolveTCPAddr("tcp", s.bindAddr)
	if err != nil {
		return fmt.Errorf("admin: resolve bind addr: %w", err)
	}
	transport, err := raft.NewTCPTransport(s.bindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return fmt.Errorf("admin: raft transport: %w", err)
	}
	snapshots, err := raft.NewFileSnapshotStore(s.dataDir, 2, os.Stderr)
	if err != nil {
		return fmt.Errorf("admin: snapshot store: %w", err)
	}
	logStore, err := raftboltdb.NewBoltStore(filepath.Join(s.dataDir, "raft-log.db"))
	if err != nil {
		return fmt.Errorf("admin: raft log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(s.dataDir, "raft-stable.db"))
	if err != nil {
		return fmt.Errorf("admin: raft stable store: %w", err)
	}

	r, err := raft.NewRaft(config, s.directory, logStore, stableStore, snapshots, transport)
	if err != nil {
		return fmt.Errorf("admin: new raft: %w", err)
	}
	s.raft = r

	bootstrapCfg := raft.Configuration{
		Servers: []raft.Server{{ID: config.LocalID, Address: transport.LocalAddr()}},
	}
	if err := s.raft.BootstrapCluster(bootstrapCfg).Error(); err != nil {
		return fmt.Errorf("admin: bootstrap cluster: %w", err)
	}
	return nil
}

// Module builds the registry.Module the admin container dispatches
// through, so admin operations are reachable as ordinary IPC fabric
// tasks over the well-known lane on pool (0,0).
func (s *Service) Module() *registry.Module {
	m := registry.NewModule(ModuleName)
	m.Register(&registry.Method{ID: types.MethodMonitor, Name: "SystemMonitor", Run: s.runSystemMonitor})
	m.Register(&registry.Method{ID: MethodGetOrCreatePool, Name: "GetOrCreatePool", Run: s.runGetOrCreatePool})
	m.Register(&registry.Method{ID: MethodDestroyPool, Name: "DestroyPool", Run: s.runDestroyPool})
	m.Register(&registry.Method{ID: MethodStopRuntime, Name: "StopRuntime", Run: s.runStopRuntime})
	m.Register(&registry.Method{ID: MethodSubmitBatch, Name: "SubmitBatch", Run: s.runSubmitBatch})
	m.Register(&registry.Method{ID: MethodRegisterMemory, Name: "RegisterMemory", Run: s.runRegisterMemory})
	m.Register(&registry.Method{ID: MethodMigrateContainers, Name: "MigrateContainers", Run: s.runMigrateContainers})
	m.Register(&registry.Method{ID: MethodHeartbeat, Name: "Heartbeat", Run: s.runHeartbeat})
	m.Register(&registry.Method{ID: MethodHeartbeatProbe, Name: "HeartbeatProbe", Run: s.runHeartbeatProbe})
	m.Register(&registry.Method{ID: MethodAnnounceShutdown, Name: "AnnounceShutdown", Run: s.runAnnounceShutdown})
	return m
}

// --- direct Go API -----------------------------------------------------

// GetOrCreatePool ensures pool exists, bound to moduleName, with its
// lanes created in the fabric and assigned across the scheduler's
// worker pool.
func (s *Service) GetOrCreatePool(pool types.PoolId, moduleName string, lanesPerContainer int) (*registry.Pool, error) {
	p, err := s.registry.GetOrCreatePool(pool, moduleName)
	if err != nil {
		return nil, err
	}
	s.fabric.RegisterPool(pool, lanesPerContainer)
	s.scheduler.AssignPool(pool)
	return p, nil
}

// RegisterMemory creates (or attaches to) a named shared segment of the
// given size.
func (s *Service) RegisterMemory(name string, size uint64) (*segment.Segment, error) {
	return segment.Create(name, size)
}

// DestroyPool removes a pool from the registry.
func (s *Service) DestroyPool(pool types.PoolId) error {
	return s.registry.DestroyPool(pool)
}

// StopRuntime stops the scheduler and closes the fabric to new sends.
func (s *Service) StopRuntime() {
	s.fabric.Shutdown()
	s.scheduler.Stop()
}

// SubmitBatch enqueues every task in tasks, stopping at the first error.
// Returns how many were successfully sent.
func (s *Service) SubmitBatch(tasks []*types.Task) (int, error) {
	for i, t := range tasks {
		if err := s.fabric.Send(t); err != nil {
			return i, err
		}
	}
	return len(tasks), nil
}

// MigrateContainers records, for each request, DestNodeID as the sole
// route of the request's pool in the Raft-replicated route directory.
// Only the pool's route changes: ContainerID is not consulted, and no
// lanes are reassigned between local workers.
func (s *Service) MigrateContainers(requests []MigrationRequest) MigrationResult {
	migrated := 0
	var lastErr error
	for _, req := range requests {
		if err := s.setRoute(req.PoolID, []types.NodeId{req.DestNodeID}); err != nil {
			lastErr = err
			continue
		}
		migrated++
	}
	result := MigrationResult{NumMigrated: migrated}
	if lastErr != nil {
		result.Diagnostic = lastErr.Error()
	}
	return result
}

func (s *Service) setRoute(pool types.PoolId, nodes []types.NodeId) error {
	if s.raft == nil {
		return taxonomy.New(taxonomy.NotInitialized)
	}
	data, err := json.Marshal(setRouteArgs{Pool: pool, Nodes: nodes})
	if err != nil {
		return err
	}
	cmd, err := json.Marshal(routeCommand{Op: opSetRoute, Data: data})
	if err != nil {
		return err
	}
	return s.raft.Apply(cmd, 5*time.Second).Error()
}

// Heartbeat records that node is alive.
func (s *Service) Heartbeat(node types.NodeId) error {
	if s.raft == nil {
		return taxonomy.New(taxonomy.NotInitialized)
	}
	data, _ := json.Marshal(node)
	cmd, _ := json.Marshal(routeCommand{Op: opHeartbeat, Data: data})
	return s.raft.Apply(cmd, 5*time.Second).Error()
}

// HeartbeatProbe reports when node was last seen.
func (s *Service) HeartbeatProbe(node types.NodeId) (time.Time, bool) {
	s.directory.mu.RLock()
	defer s.directory.mu.RUnlock()
	t, ok := s.directory.lastSeen[node]
	return t, ok
}

// SystemMonitor returns one Stats entry per worker.
func (s *Service) SystemMonitor() []scheduler.Stats {
	return s.scheduler.Stats()
}

// AnnounceShutdown logs the shutdown and stops the runtime.
func (s *Service) AnnounceShutdown() {
	s.logger.Info().Msg("runtime shutdown announced")
	s.StopRuntime()
}

// --- registry.Method Run adapters --------------------------------------

func (s *Service) runSystemMonitor(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	return json.Marshal(s.SystemMonitor())
}

func (s *Service) runGetOrCreatePool(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Pool              types.PoolId `json:"pool"`
		ModuleName        string       `json:"module_name"`
		LanesPerContainer int          `json:"lanes_per_container"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if _, err := s.GetOrCreatePool(args.Pool, args.ModuleName, args.LanesPerContainer); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (s *Service) runDestroyPool(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var pool types.PoolId
	if err := json.Unmarshal(task.Payload, &pool); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if err := s.DestroyPool(pool); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (s *Service) runStopRuntime(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	s.StopRuntime()
	return []byte(`{"ok":true}`), nil
}

func (s *Service) runSubmitBatch(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var tasks []*types.Task
	if err := json.Unmarshal(task.Payload, &tasks); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	n, err := s.SubmitBatch(tasks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Scheduled int `json:"scheduled"`
	}{n})
}

func (s *Service) runRegisterMemory(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Name string `json:"name"`
		Size uint64 `json:"size"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	seg, err := s.RegisterMemory(args.Name, args.Size)
	if err != nil {
		return nil, err
	}
	defer seg.Close()
	return json.Marshal(struct {
		SegmentID string `json:"segment_id"`
		Size      uint64 `json:"size"`
	}{seg.SegmentID().String(), seg.Size()})
}

func (s *Service) runMigrateContainers(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var requests []MigrationRequest
	if err := json.Unmarshal(task.Payload, &requests); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	return json.Marshal(s.MigrateContainers(requests))
}

func (s *Service) runHeartbeat(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var node types.NodeId
	if err := json.Unmarshal(task.Payload, &node); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if err := s.Heartbeat(node); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (s *Service) runHeartbeatProbe(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var node types.NodeId
	if err := json.Unmarshal(task.Payload, &node); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	seen, ok := s.HeartbeatProbe(node)
	return json.Marshal(struct {
		LastSeen time.Time `json:"last_seen"`
		Known    bool      `json:"known"`
	}{seen, ok})
}

func (s *Service) runAnnounceShutdown(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	s.AnnounceShutdown()
	return []byte(`{"ok":true}`), nil
}
