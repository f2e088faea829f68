package registry

import (
	"context"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// RunFunc executes a method's body against a claimed task, returning the
// raw result bytes the future is completed with.
type RunFunc func(ctx context.Context, container *Container, task *types.Task) ([]byte, error)

// SaveTaskFunc serializes a task for remote execution.
type SaveTaskFunc func(task *types.Task) ([]byte, error)

// LoadTaskFunc is SaveTaskFunc's inverse.
type LoadTaskFunc func(data []byte) (*types.Task, error)

// LocalSaveOutFunc is the cheap local-archive path used when a task never
// leaves the process: it may reference segment-resident payloads directly
// instead of copying them out.
type LocalSaveOutFunc func(task *types.Task, result []byte) (any, error)

// LocalLoadInFunc is LocalSaveOutFunc's inverse.
type LocalLoadInFunc func(local any) (*types.Task, error)

// NewCopyFunc deep-copies a task for replication to one more destination.
type NewCopyFunc func(task *types.Task) (*types.Task, error)

// AggregateFunc merges a completed replica's result back into the
// origin task. Must be idempotent: aggregating the same replica twice
// leaves the origin unchanged the second time.
type AggregateFunc func(origin, replica *types.Task) error

// DelFunc reclaims whatever resources a terminal task is still holding.
type DelFunc func(task *types.Task) error

// Method bundles every operation a module provides for one MethodId. Run
// is required and is the only field Registry.Dispatch calls; the others
// may be left nil, and no default implementations are filled in for them.
type Method struct {
	ID           types.MethodId
	Name         string
	Run          RunFunc
	SaveTask     SaveTaskFunc
	LoadTask     LoadTaskFunc
	LocalSaveOut LocalSaveOutFunc
	LocalLoadIn  LocalLoadInFunc
	NewCopy      NewCopyFunc
	Aggregate    AggregateFunc
	Del          DelFunc
}

// Module is a method table shared by every Container created in pools
// bound to it.
type Module struct {
	Name    string
	methods map[types.MethodId]*Method
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, methods: make(map[types.MethodId]*Method)}
}

// Register adds method to the module's table, keyed by method.ID.
// Registering the same id twice replaces the previous entry.
func (m *Module) Register(method *Method) {
	m.methods[method.ID] = method
}

// Lookup resolves a method id, or returns taxonomy.MethodNotFound.
func (m *Module) Lookup(id types.MethodId) (*Method, error) {
	method, ok := m.methods[id]
	if !ok {
		return nil, taxonomy.New(taxonomy.MethodNotFound)
	}
	return method, nil
}
