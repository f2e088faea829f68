package main

import (
	"fmt"
	"path/filepath"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/cae"
	"github.com/iowarp/context-runtime/pkg/cte"
	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/scheduler"
	"github.com/iowarp/context-runtime/pkg/types"
)

// adminPool is the well-known pool the built-in admin container is
// bound to; caePool hosts the context assimilation engine's sole
// container.
var (
	adminPool = types.PoolId{Major: 0, Minor: 0}
	caePool   = types.PoolId{Major: 1, Minor: 0}
)

// runtime bundles the registry/fabric/scheduler triple and the
// built-in admin, CTE and CAE modules a CLI command needs to drive a
// context runtime in-process.
type runtime struct {
	registry  *registry.Registry
	fabric    *ipc.Fabric
	scheduler *scheduler.Scheduler
	cte       *cte.Engine
	cae       *cae.Engine
	admin     *admin.Service
}

// newRuntime stands up a single-node runtime: CTE with one file-backed
// target, CAE wired against it, and the admin control plane
// self-bootstrapped over a one-member Raft cluster.
func newRuntime(nodeID types.NodeId, dataDir string, numWorkers int) (*runtime, error) {
	reg := registry.New()
	fab := ipc.NewFabric(64)
	sched := scheduler.New(fab, reg, numWorkers, nil)

	cteEngine, err := cte.NewEngine(filepath.Join(dataDir, "cte"))
	if err != nil {
		return nil, fmt.Errorf("open cte store: %w", err)
	}
	if _, err := cteEngine.RegisterTarget("default", types.BdevFile, 64<<30); err != nil {
		return nil, fmt.Errorf("register cte target: %w", err)
	}
	reg.RegisterModule(cteEngine.Module())
	ctePoolObj, err := reg.GetOrCreatePool(types.PoolId{Major: 2, Minor: 0}, cte.ModuleName)
	if err != nil {
		return nil, fmt.Errorf("create cte pool: %w", err)
	}
	cteMod, _ := reg.Module(cte.ModuleName)
	ctePoolObj.CreateContainer(cteMod, nil)
	fab.RegisterPool(types.PoolId{Major: 2, Minor: 0}, 1)
	sched.AssignPool(types.PoolId{Major: 2, Minor: 0})

	caeEngine := cae.NewEngine(fab, caePool, cteEngine.GetOrCreateTag, cteEngine.PutBlob)
	reg.RegisterModule(caeEngine.Module())
	caePoolObj, err := reg.GetOrCreatePool(caePool, cae.ModuleName)
	if err != nil {
		return nil, fmt.Errorf("create cae pool: %w", err)
	}
	caeMod, _ := reg.Module(cae.ModuleName)
	caePoolObj.CreateContainer(caeMod, nil)
	fab.RegisterPool(caePool, 1)
	sched.AssignPool(caePool)

	adminSvc := admin.New(admin.Config{NodeID: nodeID, BindAddr: "127.0.0.1:0", DataDir: dataDir}, reg, fab, sched)
	if err := adminSvc.Bootstrap(); err != nil {
		return nil, fmt.Errorf("bootstrap admin raft: %w", err)
	}
	reg.RegisterModule(adminSvc.Module())
	adminPoolObj, err := reg.GetOrCreatePool(adminPool, admin.ModuleName)
	if err != nil {
		return nil, fmt.Errorf("create admin pool: %w", err)
	}
	adminMod, _ := reg.Module(admin.ModuleName)
	adminPoolObj.CreateContainer(adminMod, nil)
	fab.RegisterPool(adminPool, 1)
	sched.AssignPool(adminPool)

	sched.Start()

	return &runtime{
		registry:  reg,
		fabric:    fab,
		scheduler: sched,
		cte:       cteEngine,
		cae:       caeEngine,
		admin:     adminSvc,
	}, nil
}

// Close stops the scheduler and fabric and releases the CTE store.
func (r *runtime) Close() {
	r.admin.StopRuntime()
	r.cte.Close()
}
