package rpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/security"
	"github.com/iowarp/context-runtime/pkg/types"
)

const defaultCallTimeout = 10 * time.Second

// Client dials a remote node's rpc.Server over mTLS and invokes the
// hand-rolled Admin service described in service.go.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to addr using the node certificate and CA found at
// certDir, mirroring the teacher's connectWithMTLS dial pattern.
func NewClient(addr, certDir string) (*Client, error) {
	cert, err := security.LoadCertFromFile(certDir)
	if err != nil {
		return nil, fmt.Errorf("rpc: load client certificate: %w", err)
	}
	caCert, err := security.LoadCACertFromFile(certDir)
	if err != nil {
		return nil, fmt.Errorf("rpc: load CA certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	certPool.AddCert(caCert)

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*cert},
		RootCAs:      certPool,
		MinVersion:   tls.VersionTLS13,
	}

	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	if err != nil {
		return nil, fmt.Errorf("rpc: dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()
	return c.conn.Invoke(ctx, "/contextruntime.rpc.Admin/"+method, req, resp)
}

// Heartbeat reports node as alive to the remote admin.
func (c *Client) Heartbeat(ctx context.Context, node types.NodeId) error {
	return c.invoke(ctx, "Heartbeat", &HeartbeatRequest{NodeID: node}, &HeartbeatResponse{})
}

// HeartbeatProbe asks the remote admin when node was last seen.
func (c *Client) HeartbeatProbe(ctx context.Context, node types.NodeId) (time.Time, bool, error) {
	resp := &HeartbeatProbeResponse{}
	if err := c.invoke(ctx, "HeartbeatProbe", &HeartbeatProbeRequest{NodeID: node}, resp); err != nil {
		return time.Time{}, false, err
	}
	return resp.LastSeen, resp.Known, nil
}

// SubmitBatch enqueues tasks on the remote admin's scheduler.
func (c *Client) SubmitBatch(ctx context.Context, tasks []*types.Task) (int, error) {
	resp := &SubmitBatchResponse{}
	if err := c.invoke(ctx, "SubmitBatch", &SubmitBatchRequest{Tasks: tasks}, resp); err != nil {
		return 0, err
	}
	return resp.Scheduled, nil
}

// MigrateContainers asks the remote admin to move containers to a
// destination node.
func (c *Client) MigrateContainers(ctx context.Context, requests []admin.MigrationRequest) (admin.MigrationResult, error) {
	resp := &MigrateContainersResponse{}
	if err := c.invoke(ctx, "MigrateContainers", &MigrateContainersRequest{Requests: requests}, resp); err != nil {
		return admin.MigrationResult{}, err
	}
	return resp.Result, nil
}

// SystemMonitor fetches per-worker Stats from the remote admin.
func (c *Client) SystemMonitor(ctx context.Context) (*SystemMonitorResponse, error) {
	resp := &SystemMonitorResponse{}
	if err := c.invoke(ctx, "SystemMonitor", &SystemMonitorRequest{}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// AnnounceShutdown tells the remote admin to stop its runtime.
func (c *Client) AnnounceShutdown(ctx context.Context) error {
	return c.invoke(ctx, "AnnounceShutdown", &AnnounceShutdownRequest{}, &AnnounceShutdownResponse{})
}

// ForwardTask hands task to a remote node's fabric, used when a
// PoolQuery names that node specifically.
func (c *Client) ForwardTask(ctx context.Context, task *types.Task) error {
	return c.invoke(ctx, "ForwardTask", &ForwardTaskRequest{Task: task}, &ForwardTaskResponse{})
}
