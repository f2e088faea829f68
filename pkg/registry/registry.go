package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// Container is one instance of a module: its id within a pool plus
// whatever private state the module's Run functions close over.
type Container struct {
	ID     types.ContainerId
	PoolID types.PoolId
	Module *Module
	State  any
}

// Pool is a named set of containers all bound to the same module.
type Pool struct {
	ID         types.PoolId
	ModuleName string

	mu         sync.RWMutex
	containers map[types.ContainerId]*Container
	nextID     uint32
}

// CreateContainer allocates a new container id within the pool and binds
// it to the given module instance state.
func (p *Pool) CreateContainer(module *Module, state any) *Container {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := types.ContainerId(atomic.AddUint32(&p.nextID, 1) - 1)
	c := &Container{ID: id, PoolID: p.ID, Module: module, State: state}
	p.containers[id] = c
	return c
}

// DestroyContainer removes a container from the pool.
func (p *Pool) DestroyContainer(id types.ContainerId) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.containers[id]; !ok {
		return taxonomy.New(taxonomy.ContainerNotFnd)
	}
	delete(p.containers, id)
	return nil
}

// GetContainer looks up a container by id.
func (p *Pool) GetContainer(id types.ContainerId) (*Container, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.containers[id]
	if !ok {
		return nil, taxonomy.New(taxonomy.ContainerNotFnd)
	}
	return c, nil
}

// Containers returns a snapshot of every container currently in the pool.
func (p *Pool) Containers() []*Container {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Container, 0, len(p.containers))
	for _, c := range p.containers {
		out = append(out, c)
	}
	return out
}

// Registry resolves (PoolId -> container -> method) for task dispatch. It
// is the single source of truth the worker scheduler consults on every
// claimed task.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
	pools   map[types.PoolId]*Pool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
		pools:   make(map[types.PoolId]*Pool),
	}
}

// RegisterModule makes a module available for GetOrCreatePool.
func (r *Registry) RegisterModule(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.Name] = m
}

// Module looks up a registered module by name.
func (r *Registry) Module(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[name]
	return m, ok
}

// GetOrCreatePool returns the pool for id, creating it bound to
// moduleName if it does not exist yet. Idempotent on an existing pool
// regardless of moduleName (the admin surface is expected to pass the
// same module name consistently for a given id).
func (r *Registry) GetOrCreatePool(id types.PoolId, moduleName string) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[id]; ok {
		return p, nil
	}
	if _, ok := r.modules[moduleName]; !ok {
		return nil, taxonomy.New(taxonomy.MethodNotFound)
	}
	p := &Pool{ID: id, ModuleName: moduleName, containers: make(map[types.ContainerId]*Container)}
	r.pools[id] = p
	return p, nil
}

// DestroyPool removes a pool and every container it held.
func (r *Registry) DestroyPool(id types.PoolId) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pools[id]; !ok {
		return taxonomy.New(taxonomy.PoolNotFound)
	}
	delete(r.pools, id)
	return nil
}

// Pool looks up a pool by id.
func (r *Registry) Pool(id types.PoolId) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, taxonomy.New(taxonomy.PoolNotFound)
	}
	return p, nil
}

// Pools returns every pool currently registered.
func (r *Registry) Pools() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	return out
}

// Resolve finds the (container, method) pair a task dispatches to.
func (r *Registry) Resolve(task *types.Task) (*Container, *Method, error) {
	pool, err := r.Pool(task.PoolID)
	if err != nil {
		return nil, nil, err
	}
	container, err := pool.GetContainer(task.ContainerID)
	if err != nil {
		return nil, nil, err
	}
	method, err := container.Module.Lookup(task.MethodID)
	if err != nil {
		return nil, nil, err
	}
	return container, method, nil
}

// Dispatch resolves task and invokes its method's Run function. This is
// the call pkg/scheduler makes for every task it claims off a lane.
func (r *Registry) Dispatch(ctx context.Context, task *types.Task) ([]byte, error) {
	container, method, err := r.Resolve(task)
	if err != nil {
		return nil, err
	}
	return method.Run(ctx, container, task)
}
