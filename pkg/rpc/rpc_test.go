package rpc

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/scheduler"
	"github.com/iowarp/context-runtime/pkg/security"
	"github.com/iowarp/context-runtime/pkg/types"
)

// rpcFixture wires a real admin.Service behind a real mTLS Server/Client
// pair, issuing node and client certificates from a fresh in-memory CA.
type rpcFixture struct {
	client *Client
	svc    *admin.Service
	fabric *ipc.Fabric
	server *Server
}

func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()

	key := security.DeriveKeyFromClusterID("rpc-test-cluster")
	require.NoError(t, security.SetClusterEncryptionKey(key))

	ca := security.NewCertAuthority()
	require.NoError(t, ca.Initialize())

	serverDir := t.TempDir()
	serverCert, err := ca.IssueNodeCertificate("node1", "admin", []string{"localhost"}, []net.IP{net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	require.NoError(t, security.SaveCertToFile(serverCert, serverDir))
	require.NoError(t, security.SaveCACertToFile(ca.GetRootCACert(), serverDir))

	clientDir := t.TempDir()
	clientCert, err := ca.IssueClientCertificate("cli")
	require.NoError(t, err)
	require.NoError(t, security.SaveCertToFile(clientCert, clientDir))
	require.NoError(t, security.SaveCACertToFile(ca.GetRootCACert(), clientDir))

	reg := registry.New()
	reg.RegisterModule(registry.NewModule("app"))
	fab := ipc.NewFabric(16)
	sched := scheduler.New(fab, reg, 2, nil)
	svc := admin.New(admin.Config{NodeID: 1, BindAddr: "127.0.0.1:0", DataDir: t.TempDir()}, reg, fab, sched)
	require.NoError(t, svc.Bootstrap())

	srv, err := NewServer(svc, fab, serverDir)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = srv.ServeListener(lis)
	}()

	t.Cleanup(func() {
		srv.Stop()
		sched.Stop()
	})

	client, err := NewClient(lis.Addr().String(), clientDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return &rpcFixture{client: client, svc: svc, fabric: fab, server: srv}
}

func TestHeartbeatRoundTrip(t *testing.T) {
	f := newRPCFixture(t)

	require.NoError(t, f.client.Heartbeat(context.Background(), types.NodeId(7)))

	lastSeen, known, err := f.client.HeartbeatProbe(context.Background(), types.NodeId(7))
	require.NoError(t, err)
	assert.True(t, known)
	assert.False(t, lastSeen.IsZero())
}

func TestHeartbeatProbeUnknownNode(t *testing.T) {
	f := newRPCFixture(t)

	_, known, err := f.client.HeartbeatProbe(context.Background(), types.NodeId(999))
	require.NoError(t, err)
	assert.False(t, known)
}

func TestSubmitBatchOverRPC(t *testing.T) {
	f := newRPCFixture(t)
	pool := types.PoolId{Major: 9}
	_, err := f.svc.GetOrCreatePool(pool, "app", 1)
	require.NoError(t, err)

	var tasks []*types.Task
	for i := 0; i < 4; i++ {
		task, _ := f.fabric.NewTask(pool, 0, types.MethodFirstUser, types.QueryLocal(), nil)
		tasks = append(tasks, task)
	}

	n, err := f.client.SubmitBatch(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestSystemMonitorOverRPC(t *testing.T) {
	f := newRPCFixture(t)

	resp, err := f.client.SystemMonitor(context.Background())
	require.NoError(t, err)
	assert.Len(t, resp.Workers, 2)
}

func TestMigrateContainersOverRPC(t *testing.T) {
	f := newRPCFixture(t)
	pool := types.PoolId{Major: 3}

	result, err := f.client.MigrateContainers(context.Background(), []admin.MigrationRequest{
		{PoolID: pool, ContainerID: 0, DestNodeID: types.NodeId(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumMigrated)
}

func TestForwardTaskDispatchesIntoFabric(t *testing.T) {
	f := newRPCFixture(t)
	pool := types.PoolId{Major: 11}
	_, err := f.svc.GetOrCreatePool(pool, "app", 1)
	require.NoError(t, err)

	task, _ := f.fabric.NewTask(pool, 0, types.MethodFirstUser, types.QueryLocal(), nil)
	require.NoError(t, f.client.ForwardTask(context.Background(), task))
}

func TestAnnounceShutdownStopsRuntime(t *testing.T) {
	f := newRPCFixture(t)

	require.NoError(t, f.client.AnnounceShutdown(context.Background()))
	assert.True(t, f.fabric.IsShuttingDown())
}

func TestNewServerFailsWithoutCertificates(t *testing.T) {
	reg := registry.New()
	reg.RegisterModule(registry.NewModule("app"))
	fab := ipc.NewFabric(16)
	sched := scheduler.New(fab, reg, 2, nil)
	svc := admin.New(admin.Config{NodeID: 1, BindAddr: "127.0.0.1:0", DataDir: t.TempDir()}, reg, fab, sched)

	_, err := NewServer(svc, fab, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
