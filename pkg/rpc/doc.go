// Package rpc carries inter-node admin control-plane calls over
// google.golang.org/grpc: Heartbeat, HeartbeatProbe, SubmitBatch,
// MigrateContainers, SystemMonitor, AnnounceShutdown, and ForwardTask
// (which enqueues a task into the callee's fabric; nothing in the runtime
// issues it on its own from a task's PoolQuery).
//
// protoc cannot run in this environment, so the wire messages are plain
// Go structs carried by a hand-registered JSON encoding.Codec
// (google.golang.org/grpc/encoding) instead of protobuf-generated types.
// Everything else about the teacher's gRPC usage -- grpc.NewServer,
// grpc.Dial, TLS credentials, the client/server split, a hand-written
// grpc.ServiceDesc -- carries over unchanged.
package rpc
