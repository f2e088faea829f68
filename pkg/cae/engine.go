package cae

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/iowarp/context-runtime/pkg/ipc"
	"github.com/iowarp/context-runtime/pkg/metrics"
	"github.com/iowarp/context-runtime/pkg/registry"
	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// ChunkSize is the unit CAE reads and writes src streams in.
const ChunkSize = 4 << 20

// Engine drives ingest: for each manifest entry it creates a task in
// the cae/core module (spec.md 4.I), respecting depends_on ordering.
type Engine struct {
	fabric *ipc.Fabric
	pool   types.PoolId
	ctePut func(tag types.TagId, name string, data []byte, offset uint64, score float64) error
	cteTag func(name string, policy types.BdevType) (types.TagId, error)
}

// NewEngine builds a CAE engine that dispatches ingest tasks to pool
// through fabric, storing chunks via the given CTE accessors.
func NewEngine(
	fabric *ipc.Fabric,
	pool types.PoolId,
	getOrCreateTag func(name string, policy types.BdevType) (types.TagId, error),
	putBlob func(tag types.TagId, name string, data []byte, offset uint64, score float64) error,
) *Engine {
	return &Engine{fabric: fabric, pool: pool, ctePut: putBlob, cteTag: getOrCreateTag}
}

// Ingest parses manifestData, schedules one task per transfer entry in
// depends_on order, and returns how many tasks were scheduled.
func (e *Engine) Ingest(ctx context.Context, manifestData []byte) (int, error) {
	manifest, err := ParseManifest(manifestData)
	if err != nil {
		return 0, err
	}
	nodes, order, err := buildDAG(manifest)
	if err != nil {
		return 0, err
	}
	if len(order) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		scheduled int
		firstErr  error
	)

	for _, dst := range order {
		n := nodes[dst]
		wg.Add(1)
		go func(n *dagNode) {
			defer wg.Done()
			defer close(n.done)

			if err := awaitDeps(ctx, nodes, n); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			payload, err := json.Marshal(n.spec)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			task, future := e.fabric.NewTask(e.pool, 0, MethodIngestEntry, types.QueryLocal(), payload)
			mu.Lock()
			scheduled++
			mu.Unlock()
			metrics.CAETasksScheduled.Inc()

			if err := e.fabric.Send(task); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				metrics.CAEIngestFailures.Inc()
				return
			}
			_, _, rerr := e.fabric.Wait(ctx, future)
			if rerr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = rerr
				}
				mu.Unlock()
				metrics.CAEIngestFailures.Inc()
			}
		}(n)
	}
	wg.Wait()
	return scheduled, firstErr
}

// runIngestEntry is the cae/core module's sole method: resolve src,
// chunk it, and PutBlob each chunk against dst.
func (e *Engine) runIngestEntry(ctx context.Context, c *registry.Container, task *types.Task) ([]byte, error) {
	var spec TransferSpec
	if err := json.Unmarshal(task.Payload, &spec); err != nil {
		return nil, taxonomy.Wrap(taxonomy.ManifestInvalid, err)
	}

	_, dstPath, err := splitScheme(spec.Dst)
	if err != nil {
		return nil, err
	}
	tag, err := e.cteTag(dstPath, "")
	if err != nil {
		return nil, err
	}

	files, err := resolveFiles(spec.Src, spec.DatasetFilter)
	if err != nil {
		return nil, err
	}

	var written uint64
	for _, path := range files {
		n, err := e.ingestFile(path, spec, tag)
		if err != nil {
			return nil, err
		}
		written += n
	}
	return json.Marshal(struct {
		BytesWritten uint64 `json:"bytes_written"`
		Files        int    `json:"files"`
	}{written, len(files)})
}

func (e *Engine) ingestFile(path string, spec TransferSpec, tag types.TagId) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, taxonomy.Wrap(taxonomy.IOError, err)
	}
	defer f.Close()

	if spec.RangeOff > 0 {
		if _, err := f.Seek(int64(spec.RangeOff), 0); err != nil {
			return 0, taxonomy.Wrap(taxonomy.IOError, err)
		}
	}

	blobName := path
	var offset uint64
	remaining := spec.RangeSize
	limited := remaining > 0
	buf := make([]byte, ChunkSize)

	for {
		want := len(buf)
		if limited && uint64(want) > remaining {
			want = int(remaining)
		}
		if want == 0 {
			break
		}
		n, rerr := f.Read(buf[:want])
		if n > 0 {
			if err := e.ctePut(tag, blobName, buf[:n], offset, 0); err != nil {
				return offset, err
			}
			offset += uint64(n)
			if limited {
				remaining -= uint64(n)
			}
		}
		if rerr != nil {
			break
		}
	}
	return offset, nil
}
