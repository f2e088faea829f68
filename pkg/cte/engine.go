package cte

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iowarp/context-runtime/pkg/aio"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

func blobStoreKey(tag types.TagId, name string) string {
	return tag.String() + "/" + name
}

// targetEntry pairs a Target's metadata with the aio backend it reads
// and writes chunk bytes through.
type targetEntry struct {
	target  *types.Target
	backend aio.Backend
	dir     string
}

// Engine is the tag/blob storage core (spec.md 4.G). A single Engine
// owns every tag, blob and target registered in one runtime.
type Engine struct {
	dataDir string
	store   *metaStore

	// tagMu guards the tag directory; regex tag_query takes its single
	// read lock here, per spec.md 5.
	tagMu      sync.RWMutex
	tags       map[types.TagId]*types.Tag
	tagsByName map[string]types.TagId
	nextTag    uint32

	// blobMu guards the blobs index (existence, not content).
	blobMu sync.RWMutex
	blobs  map[string]*types.Blob

	blobLockMu sync.Mutex
	blobLocks  map[string]*sync.Mutex

	// targetMu guards targets; per spec.md 5 this stands in for the
	// "per-target reader-writer lock" (a single map-wide RWMutex, since
	// this port has no separate shared-memory target descriptors to
	// protect independently).
	targetMu sync.RWMutex
	targets  map[string]*targetEntry
}

// NewEngine opens (or creates) the metadata store under dataDir and
// loads any previously registered tags/blobs/targets.
func NewEngine(dataDir string) (*Engine, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("cte: create data dir: %w", err)
	}
	store, err := openMetaStore(dataDir)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		dataDir:    dataDir,
		store:      store,
		tags:       make(map[types.TagId]*types.Tag),
		tagsByName: make(map[string]types.TagId),
		blobs:      make(map[string]*types.Blob),
		blobLocks:  make(map[string]*sync.Mutex),
		targets:    make(map[string]*targetEntry),
	}

	tags, err := store.loadTags()
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		e.tags[t.ID] = t
		e.tagsByName[t.Name] = t.ID
		if t.ID.Major >= e.nextTag {
			e.nextTag = t.ID.Major + 1
		}
	}
	blobs, err := store.loadBlobs()
	if err != nil {
		return nil, err
	}
	for _, b := range blobs {
		e.blobs[blobStoreKey(b.TagID, b.Name)] = b
	}
	targets, err := store.loadTargets()
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		e.targets[t.ID] = &targetEntry{target: t, backend: aio.Default(), dir: filepath.Join(dataDir, "blobs", t.ID)}
	}
	return e, nil
}

// Close releases the metadata store.
func (e *Engine) Close() error { return e.store.Close() }

// RegisterTarget adds a new placement target of the given bdev type
// and capacity (bytes).
func (e *Engine) RegisterTarget(id string, bdevType types.BdevType, capacity uint64) (*types.Target, error) {
	e.targetMu.Lock()
	defer e.targetMu.Unlock()
	if _, exists := e.targets[id]; exists {
		return e.targets[id].target, nil
	}
	t := &types.Target{ID: id, BdevType: bdevType, Capacity: capacity, Free: capacity}
	dir := filepath.Join(e.dataDir, "blobs", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cte: create target dir: %w", err)
	}
	if err := e.store.putTarget(t); err != nil {
		return nil, err
	}
	e.targets[id] = &targetEntry{target: t, backend: aio.Default(), dir: dir}
	return t, nil
}

// Targets returns every registered target.
func (e *Engine) Targets() []*types.Target {
	e.targetMu.RLock()
	defer e.targetMu.RUnlock()
	out := make([]*types.Target, 0, len(e.targets))
	for _, te := range e.targets {
		out = append(out, te.target)
	}
	return out
}

// GetOrCreateTag returns the id of the named tag, creating it (with
// the given placement policy) if it doesn't exist yet. An empty policy
// means chunks of this tag's blobs may land on any target.
func (e *Engine) GetOrCreateTag(name string, policy types.BdevType) (types.TagId, error) {
	e.tagMu.Lock()
	defer e.tagMu.Unlock()
	if id, ok := e.tagsByName[name]; ok {
		return id, nil
	}
	id := types.TagId{Major: e.nextTag, Minor: 0}
	e.nextTag++
	tag := &types.Tag{ID: id, Name: name, Policy: policy}
	if err := e.store.putTag(tag); err != nil {
		return types.TagId{}, err
	}
	e.tags[id] = tag
	e.tagsByName[name] = id
	return id, nil
}

func (e *Engine) tagByID(id types.TagId) (*types.Tag, error) {
	e.tagMu.RLock()
	defer e.tagMu.RUnlock()
	tag, ok := e.tags[id]
	if !ok {
		return nil, taxonomy.New(taxonomy.TagNotFound)
	}
	return tag, nil
}

func (e *Engine) blobLock(key string) *sync.Mutex {
	e.blobLockMu.Lock()
	defer e.blobLockMu.Unlock()
	l, ok := e.blobLocks[key]
	if !ok {
		l = &sync.Mutex{}
		e.blobLocks[key] = l
	}
	return l
}

func chunkFileName(tag types.TagId, name string) string {
	sum := sha256.Sum256([]byte(tag.String() + "/" + name))
	return hex.EncodeToString(sum[:]) + ".bin"
}

// DelTag removes a tag and every blob it contains.
func (e *Engine) DelTag(id types.TagId) error {
	tag, err := e.tagByID(id)
	if err != nil {
		return err
	}
	for _, name := range e.GetContainedBlobs(id) {
		if err := e.DelBlob(id, name); err != nil {
			return err
		}
	}
	e.tagMu.Lock()
	delete(e.tags, id)
	delete(e.tagsByName, tag.Name)
	e.tagMu.Unlock()
	return e.store.deleteTag(id)
}

// GetContainedBlobs lists every blob name under tag.
func (e *Engine) GetContainedBlobs(tag types.TagId) []string {
	e.blobMu.RLock()
	defer e.blobMu.RUnlock()
	var names []string
	for _, b := range e.blobs {
		if b.TagID == tag {
			names = append(names, b.Name)
		}
	}
	return names
}

// GetBlobSize returns the logical size of a blob.
func (e *Engine) GetBlobSize(tag types.TagId, name string) (uint64, error) {
	e.blobMu.RLock()
	defer e.blobMu.RUnlock()
	b, ok := e.blobs[blobStoreKey(tag, name)]
	if !ok {
		return 0, taxonomy.New(taxonomy.BlobNotFound)
	}
	return b.Size, nil
}

// DelBlob removes a blob's metadata and credits its chunk lengths back
// to their targets' free capacity. The backing chunk files are left in
// place: their directory is reused by future blobs hashing to the same
// name, and removal is not on the hot path spec.md cares about.
func (e *Engine) DelBlob(tag types.TagId, name string) error {
	key := blobStoreKey(tag, name)
	lock := e.blobLock(key)
	lock.Lock()
	defer lock.Unlock()

	e.blobMu.Lock()
	b, ok := e.blobs[key]
	if !ok {
		e.blobMu.Unlock()
		return taxonomy.New(taxonomy.BlobNotFound)
	}
	delete(e.blobs, key)
	e.blobMu.Unlock()

	e.targetMu.Lock()
	for _, c := range b.Chunks {
		if te, ok := e.targets[c.TargetID]; ok && c.Resident {
			te.target.Free += c.Length
			_ = e.store.putTarget(te.target)
		}
	}
	e.targetMu.Unlock()

	return e.store.deleteBlob(tag, name)
}
