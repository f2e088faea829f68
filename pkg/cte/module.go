package cte

import (
	"context"
	"encoding/json"

	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// Method ids for the built-in cte/core module (spec.md 4.C lists it
// among admin/bdev/cae as a built-in).
const (
	MethodGetOrCreateTag = types.MethodFirstUser + iota
	MethodPutBlob
	MethodGetBlob
	MethodDelBlob
	MethodDelTag
	MethodGetBlobSize
	MethodGetContainedBlobs
	MethodReorganizeBlob
	MethodTagQuery
	MethodBlobQuery
)

// ModuleName is the name the cte/core module is registered under.
const ModuleName = "cte"

// Module builds the registry.Module exposing every tag/blob operation
// as a method reachable through the IPC fabric, wired with the
// generic JSON save_task/load_task and local_save_out/local_load_in
// pair every built-in module shares.
func (e *Engine) Module() *registry.Module {
	m := registry.NewModule(ModuleName)
	reg := func(id types.MethodId, name string, run registry.RunFunc) {
		m.Register(&registry.Method{
			ID:           id,
			Name:         name,
			Run:          run,
			SaveTask:     registry.JSONSaveTask,
			LoadTask:     registry.JSONLoadTask,
			LocalSaveOut: registry.JSONLocalSaveOut,
			LocalLoadIn:  registry.JSONLocalLoadIn,
		})
	}

	reg(MethodGetOrCreateTag, "GetOrCreateTag", e.runGetOrCreateTag)
	reg(MethodPutBlob, "PutBlob", e.runPutBlob)
	reg(MethodGetBlob, "GetBlob", e.runGetBlob)
	reg(MethodDelBlob, "DelBlob", e.runDelBlob)
	reg(MethodDelTag, "DelTag", e.runDelTag)
	reg(MethodGetBlobSize, "GetBlobSize", e.runGetBlobSize)
	reg(MethodGetContainedBlobs, "GetContainedBlobs", e.runGetContainedBlobs)
	reg(MethodReorganizeBlob, "ReorganizeBlob", e.runReorganizeBlob)
	reg(MethodTagQuery, "TagQuery", e.runTagQuery)
	reg(MethodBlobQuery, "BlobQuery", e.runBlobQuery)
	return m
}

func (e *Engine) runGetOrCreateTag(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Name   string        `json:"name"`
		Policy types.BdevType `json:"policy"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	id, err := e.GetOrCreateTag(args.Name, args.Policy)
	if err != nil {
		return nil, err
	}
	return json.Marshal(id)
}

func (e *Engine) runPutBlob(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Tag    types.TagId `json:"tag"`
		Name   string      `json:"name"`
		Data   []byte      `json:"data"`
		Offset uint64      `json:"offset"`
		Score  float64     `json:"score"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if err := e.PutBlob(args.Tag, args.Name, args.Data, args.Offset, args.Score); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (e *Engine) runGetBlob(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Tag    types.TagId `json:"tag"`
		Name   string      `json:"name"`
		Size   uint64      `json:"size"`
		Offset uint64      `json:"offset"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	return e.GetBlob(args.Tag, args.Name, args.Size, args.Offset)
}

func (e *Engine) runDelBlob(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Tag  types.TagId `json:"tag"`
		Name string      `json:"name"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if err := e.DelBlob(args.Tag, args.Name); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (e *Engine) runDelTag(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var tag types.TagId
	if err := json.Unmarshal(task.Payload, &tag); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if err := e.DelTag(tag); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (e *Engine) runGetBlobSize(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Tag  types.TagId `json:"tag"`
		Name string      `json:"name"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	size, err := e.GetBlobSize(args.Tag, args.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(size)
}

func (e *Engine) runGetContainedBlobs(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var tag types.TagId
	if err := json.Unmarshal(task.Payload, &tag); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	return json.Marshal(e.GetContainedBlobs(tag))
}

func (e *Engine) runReorganizeBlob(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Tag      types.TagId `json:"tag"`
		Name     string      `json:"name"`
		NewScore float64     `json:"new_score"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	if err := e.ReorganizeBlob(args.Tag, args.Name, args.NewScore); err != nil {
		return nil, err
	}
	return []byte(`{"ok":true}`), nil
}

func (e *Engine) runTagQuery(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		Pattern string `json:"pattern"`
		Max     int    `json:"max"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	tags, err := e.TagQuery(args.Pattern, args.Max)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	return json.Marshal(tags)
}

func (e *Engine) runBlobQuery(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var args struct {
		TagPattern  string `json:"tag_pattern"`
		BlobPattern string `json:"blob_pattern"`
		Max         int    `json:"max"`
	}
	if err := json.Unmarshal(task.Payload, &args); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	blobs, err := e.BlobQuery(args.TagPattern, args.BlobPattern, args.Max)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}
	return json.Marshal(blobs)
}
