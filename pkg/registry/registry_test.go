package registry

import (
	"context"
	"testing"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoModule() *Module {
	m := NewModule("echo")
	m.Register(&Method{
		ID:   types.MethodFirstUser,
		Name: "echo",
		Run: func(ctx context.Context, c *Container, task *types.Task) ([]byte, error) {
			return task.Payload, nil
		},
	})
	return m
}

func TestRegistryResolveAndDispatch(t *testing.T) {
	r := New()
	r.RegisterModule(echoModule())

	poolID := types.PoolId{Major: 1, Minor: 0}
	pool, err := r.GetOrCreatePool(poolID, "echo")
	require.NoError(t, err)

	mod, _ := r.Module("echo")
	container := pool.CreateContainer(mod, nil)

	task := &types.Task{
		PoolID:      poolID,
		ContainerID: container.ID,
		MethodID:    types.MethodFirstUser,
		Payload:     []byte("hello"),
	}

	result, err := r.Dispatch(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), result)
}

func TestRegistryUnknownPool(t *testing.T) {
	r := New()
	task := &types.Task{PoolID: types.PoolId{Major: 9}, MethodID: types.MethodFirstUser}
	_, err := r.Dispatch(context.Background(), task)
	require.Error(t, err)
	var rerr *taxonomy.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, taxonomy.PoolNotFound, rerr.Code)
}

func TestRegistryUnknownMethod(t *testing.T) {
	r := New()
	r.RegisterModule(echoModule())
	poolID := types.PoolId{Major: 2}
	pool, err := r.GetOrCreatePool(poolID, "echo")
	require.NoError(t, err)
	mod, _ := r.Module("echo")
	container := pool.CreateContainer(mod, nil)

	task := &types.Task{PoolID: poolID, ContainerID: container.ID, MethodID: 42}
	_, err = r.Dispatch(context.Background(), task)
	require.Error(t, err)
	var rerr *taxonomy.RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, taxonomy.MethodNotFound, rerr.Code)
}

func TestRegistryDestroyPoolRemovesContainers(t *testing.T) {
	r := New()
	r.RegisterModule(echoModule())
	poolID := types.PoolId{Major: 3}
	pool, err := r.GetOrCreatePool(poolID, "echo")
	require.NoError(t, err)
	mod, _ := r.Module("echo")
	pool.CreateContainer(mod, nil)

	require.NoError(t, r.DestroyPool(poolID))
	_, err = r.Pool(poolID)
	require.Error(t, err)

	err = r.DestroyPool(poolID)
	require.Error(t, err)
}
