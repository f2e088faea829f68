/*
Package types defines the core data structures shared across the context
runtime.

This package contains the identifiers and records that make up the
runtime's data model: pools, containers, tasks, futures, lanes, and the
tag/blob/target triad the storage engine builds on. These types are used
by every other package for dispatch, scheduling, and persistence.

# Architecture

	┌─────────────────────────────────────────────────────────────┐
	│                         types                                │
	│                                                               │
	│  Identifiers:  PoolId · ContainerId · TaskId                 │
	│                WorkerId · LaneId                              │
	│                                                               │
	│  Dispatch:     Task · PoolQuery · Future · FutureState       │
	│                                                               │
	│  Storage:      Tag · Blob · Target · BdevType                │
	└─────────────────────────────────────────────────────────────┘

All types are designed to be:
  - JSON-serializable (persisted via BoltDB, carried over the JSON grpc
    codec described in pkg/rpc)
  - Safe to copy by value for identifiers, pointer-shared for records with
    lifecycle (Future, Task)

# Ownership

A Task is owned by exactly one ingress lane until a worker claims it, then
by exactly one worker until it completes, blocks, or yields (see
pkg/scheduler). A Future is created once at submission and is shared by
every waiter until it reaches a terminal FutureState; it is never dropped
while a waiter is observing it.

# See also

  - pkg/ipc for the lane/ring-buffer transport these types travel over
  - pkg/registry for how PoolId/ContainerId resolve to a running module
  - pkg/cte for Tag/Blob/Target placement semantics
*/
package types
