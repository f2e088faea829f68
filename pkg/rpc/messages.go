package rpc

import (
	"time"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/scheduler"
	"github.com/iowarp/context-runtime/pkg/types"
)

// HeartbeatRequest carries the reporting node's id.
type HeartbeatRequest struct {
	NodeID types.NodeId `json:"node_id"`
}

// HeartbeatResponse is empty; a nil error on the call is the signal.
type HeartbeatResponse struct{}

// HeartbeatProbeRequest asks when NodeID was last seen.
type HeartbeatProbeRequest struct {
	NodeID types.NodeId `json:"node_id"`
}

// HeartbeatProbeResponse reports the probe result.
type HeartbeatProbeResponse struct {
	LastSeen time.Time `json:"last_seen"`
	Known    bool      `json:"known"`
}

// SubmitBatchRequest carries one or more tasks to enqueue on the callee.
type SubmitBatchRequest struct {
	Tasks []*types.Task `json:"tasks"`
}

// SubmitBatchResponse reports how many tasks were accepted.
type SubmitBatchResponse struct {
	Scheduled int `json:"scheduled"`
}

// MigrateContainersRequest carries the migrations to apply.
type MigrateContainersRequest struct {
	Requests []admin.MigrationRequest `json:"requests"`
}

// MigrateContainersResponse wraps admin.MigrationResult for the wire.
type MigrateContainersResponse struct {
	Result admin.MigrationResult `json:"result"`
}

// SystemMonitorRequest takes no arguments.
type SystemMonitorRequest struct{}

// SystemMonitorResponse carries one Stats entry per worker on the callee.
type SystemMonitorResponse struct {
	Workers []scheduler.Stats `json:"workers"`
}

// AnnounceShutdownRequest takes no arguments.
type AnnounceShutdownRequest struct{}

// AnnounceShutdownResponse is empty.
type AnnounceShutdownResponse struct{}

// ForwardTaskRequest carries a task for the callee to enqueue into its
// own fabric. Client.ForwardTask is its only sender; no code path sends
// one on the strength of a task's PoolQuery.
type ForwardTaskRequest struct {
	Task *types.Task `json:"task"`
}

// ForwardTaskResponse is empty; the forwarded task's own future resolves
// independently once the local scheduler runs it.
type ForwardTaskResponse struct{}
