package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/metrics"
)

// adminHandler adapts an *admin.Service (plus the fabric a ForwardTask
// hands off to) onto the hand-written ServiceDesc below.
type adminHandler struct {
	svc    *admin.Service
	fabric *ipc.Fabric
}

// recordRPC exports ctrt_rpc_requests_total and
// ctrt_rpc_request_duration_seconds for every admin RPC, hit or miss.
func recordRPC(method string, timer *metrics.Timer, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RPCRequestsTotal.WithLabelValues(method, outcome).Inc()
	timer.ObserveDurationVec(metrics.RPCRequestDuration, method)
}

func _Admin_Heartbeat_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(HeartbeatRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.heartbeat(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/Heartbeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.heartbeat(ctx, req.(*HeartbeatRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) heartbeat(ctx context.Context, req *HeartbeatRequest) (resp *HeartbeatResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("Heartbeat", timer, err) }(metrics.NewTimer())
	if err = h.svc.Heartbeat(req.NodeID); err != nil {
		return nil, err
	}
	return &HeartbeatResponse{}, nil
}

func _Admin_HeartbeatProbe_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(HeartbeatProbeRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.heartbeatProbe(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/HeartbeatProbe"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.heartbeatProbe(ctx, req.(*HeartbeatProbeRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) heartbeatProbe(ctx context.Context, req *HeartbeatProbeRequest) (resp *HeartbeatProbeResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("HeartbeatProbe", timer, err) }(metrics.NewTimer())
	lastSeen, known := h.svc.HeartbeatProbe(req.NodeID)
	return &HeartbeatProbeResponse{LastSeen: lastSeen, Known: known}, nil
}

func _Admin_SubmitBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(SubmitBatchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.submitBatch(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/SubmitBatch"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.submitBatch(ctx, req.(*SubmitBatchRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) submitBatch(ctx context.Context, req *SubmitBatchRequest) (resp *SubmitBatchResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("SubmitBatch", timer, err) }(metrics.NewTimer())
	n, err := h.svc.SubmitBatch(req.Tasks)
	if err != nil {
		return nil, err
	}
	return &SubmitBatchResponse{Scheduled: n}, nil
}

func _Admin_MigrateContainers_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(MigrateContainersRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.migrateContainers(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/MigrateContainers"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.migrateContainers(ctx, req.(*MigrateContainersRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) migrateContainers(ctx context.Context, req *MigrateContainersRequest) (resp *MigrateContainersResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("MigrateContainers", timer, err) }(metrics.NewTimer())
	result := h.svc.MigrateContainers(req.Requests)
	return &MigrateContainersResponse{Result: result}, nil
}

func _Admin_SystemMonitor_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(SystemMonitorRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.systemMonitor(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/SystemMonitor"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.systemMonitor(ctx, req.(*SystemMonitorRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) systemMonitor(ctx context.Context, req *SystemMonitorRequest) (resp *SystemMonitorResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("SystemMonitor", timer, err) }(metrics.NewTimer())
	return &SystemMonitorResponse{Workers: h.svc.SystemMonitor()}, nil
}

func _Admin_AnnounceShutdown_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(AnnounceShutdownRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.announceShutdown(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/AnnounceShutdown"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.announceShutdown(ctx, req.(*AnnounceShutdownRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) announceShutdown(ctx context.Context, req *AnnounceShutdownRequest) (resp *AnnounceShutdownResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("AnnounceShutdown", timer, err) }(metrics.NewTimer())
	h.svc.AnnounceShutdown()
	return &AnnounceShutdownResponse{}, nil
}

func _Admin_ForwardTask_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(ForwardTaskRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	h := srv.(*adminHandler)
	if interceptor == nil {
		return h.forwardTask(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/contextruntime.rpc.Admin/ForwardTask"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return h.forwardTask(ctx, req.(*ForwardTaskRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (h *adminHandler) forwardTask(ctx context.Context, req *ForwardTaskRequest) (resp *ForwardTaskResponse, err error) {
	defer func(timer *metrics.Timer) { recordRPC("ForwardTask", timer, err) }(metrics.NewTimer())
	if err = h.fabric.Send(req.Task); err != nil {
		return nil, err
	}
	return &ForwardTaskResponse{}, nil
}

// adminServiceDesc is the hand-written stand-in for the protoc-generated
// grpc.ServiceDesc a real .proto file would produce.
var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: "contextruntime.rpc.Admin",
	HandlerType: (*adminHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heartbeat", Handler: _Admin_Heartbeat_Handler},
		{MethodName: "HeartbeatProbe", Handler: _Admin_HeartbeatProbe_Handler},
		{MethodName: "SubmitBatch", Handler: _Admin_SubmitBatch_Handler},
		{MethodName: "MigrateContainers", Handler: _Admin_MigrateContainers_Handler},
		{MethodName: "SystemMonitor", Handler: _Admin_SystemMonitor_Handler},
		{MethodName: "AnnounceShutdown", Handler: _Admin_AnnounceShutdown_Handler},
		{MethodName: "ForwardTask", Handler: _Admin_ForwardTask_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contextruntime/rpc/admin.proto",
}
