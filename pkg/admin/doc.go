/*
Package admin implements the built-in admin container: the pool bound to
the reserved (0,0) pool id that every client discovers at init (spec.md
4.B, 4.F).

Service exposes pool lifecycle (GetOrCreatePool, DestroyPool),
StopRuntime, SubmitBatch, RegisterMemory, MigrateContainers,
Heartbeat/HeartbeatProbe, SystemMonitor and AnnounceShutdown as plain Go
methods, and also registers itself as a registry.Module so the same
operations are reachable as ordinary tasks routed through the IPC fabric's
well-known admin lane.

Cluster membership and the pool -> []NodeId routing table are replicated
with hashicorp/raft (TCP transport, BoltDB log/stable stores, JSON
snapshots): every change is a JSON Command{Op,Data} log entry that the
RouteDirectory FSM's Apply dispatches on Op, so MigrateContainers and
Heartbeat stay linearizable across a multi-node deployment.
*/
package admin
