package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hashicorp/raft"

	"github.com/iowarp/context-runtime/pkg/types"
)

// routeCommand is a Raft log entry: an operation name plus its JSON
// payload, which RouteDirectory.Apply dispatches on.
type routeCommand struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"data"`
}

const (
	opSetRoute     = "set_route"
	opRemoveRoute  = "remove_route"
	opHeartbeat    = "heartbeat"
	opRemoveNode   = "remove_node"
)

type setRouteArgs struct {
	Pool  types.PoolId  `json:"pool"`
	Nodes []types.NodeId `json:"nodes"`
}

// RouteDirectory is the Raft-replicated (PoolId -> []NodeId) routing
// table plus last-heartbeat-seen per node, driving MigrateContainers and
// Heartbeat.
type RouteDirectory struct {
	mu     sync.RWMutex
	routes map[types.PoolId][]types.NodeId
	lastSeen map[types.NodeId]time.Time
}

// NewRouteDirectory creates an empty directory.
func NewRouteDirectory() *RouteDirectory {
	return &RouteDirectory{
		routes:   make(map[types.PoolId][]types.NodeId),
		lastSeen: make(map[types.NodeId]time.Time),
	}
}

// Lookup returns the nodes currently hosting pool, if any.
func (d *RouteDirectory) Lookup(pool types.PoolId) ([]types.NodeId, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	nodes, ok := d.routes[pool]
	return nodes, ok
}

// Apply implements raft.FSM.
func (d *RouteDirectory) Apply(log *raft.Log) any {
	var cmd routeCommand
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return fmt.Errorf("route directory: unmarshal command: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch cmd.Op {
	case opSetRoute:
		var args setRouteArgs
		if err := json.Unmarshal(cmd.Data, &args); err != nil {
			return err
		}
		d.routes[args.Pool] = args.Nodes
		return nil

	case opRemoveRoute:
		var pool types.PoolId
		if err := json.Unmarshal(cmd.Data, &pool); err != nil {
			return err
		}
		delete(d.routes, pool)
		return nil

	case opHeartbeat:
		var node types.NodeId
		if err := json.Unmarshal(cmd.Data, &node); err != nil {
			return err
		}
		d.lastSeen[node] = time.Now()
		return nil

	case opRemoveNode:
		var node types.NodeId
		if err := json.Unmarshal(cmd.Data, &node); err != nil {
			return err
		}
		delete(d.lastSeen, node)
		for pool, nodes := range d.routes {
			filtered := nodes[:0]
			for _, n := range nodes {
				if n != node {
					filtered = append(filtered, n)
				}
			}
			d.routes[pool] = filtered
		}
		return nil

	default:
		return fmt.Errorf("route directory: unknown op %q", cmd.Op)
	}
}

// Snapshot implements raft.FSM.
func (d *RouteDirectory) Snapshot() (raft.FSMSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	routes := make(map[types.PoolId][]types.NodeId, len(d.routes))
	for k, v := range d.routes {
		routes[k] = append([]types.NodeId(nil), v...)
	}
	lastSeen := make(map[types.NodeId]time.Time, len(d.lastSeen))
	for k, v := range d.lastSeen {
		lastSeen[k] = v
	}
	return &routeSnapshot{Routes: routes, LastSeen: lastSeen}, nil
}

// Restore implements raft.FSM.
func (d *RouteDirectory) Restore(rc io.ReadCloser) error {
	defer rc.Close()
	var snap routeSnapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("route directory: decode snapshot: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes = snap.Routes
	if d.routes == nil {
		d.routes = make(map[types.PoolId][]types.NodeId)
	}
	d.lastSeen = snap.LastSeen
	if d.lastSeen == nil {
		d.lastSeen = make(map[types.NodeId]time.Time)
	}
	return nil
}

type routeSnapshot struct {
	Routes   map[types.PoolId][]types.NodeId `json:"routes"`
	LastSeen map[types.NodeId]time.Time      `json:"last_seen"`
}

func (s *routeSnapshot) Persist(sink raft.SnapshotSink) error {
	if err := json.NewEncoder(sink).Encode(s); err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *routeSnapshot) Release() {}
