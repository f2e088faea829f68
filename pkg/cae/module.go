package cae

import (
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/types"
)

// ModuleName is the name the cae/core module is registered under.
const ModuleName = "cae"

// MethodIngestEntry is the sole domain method cae/core exposes: ingest
// one already-resolved transfer entry.
const MethodIngestEntry = types.MethodFirstUser

// Module builds the registry.Module the CAE engine dispatches ingest
// tasks through.
func (e *Engine) Module() *registry.Module {
	m := registry.NewModule(ModuleName)
	m.Register(&registry.Method{
		ID:           MethodIngestEntry,
		Name:         "IngestEntry",
		Run:          e.runIngestEntry,
		SaveTask:     registry.JSONSaveTask,
		LoadTask:     registry.JSONLoadTask,
		LocalSaveOut: registry.JSONLocalSaveOut,
		LocalLoadIn:  registry.JSONLocalLoadIn,
	})
	return m
}
