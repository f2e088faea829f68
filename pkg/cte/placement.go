package cte

import (
	"sort"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// pickTarget chooses the compatible target (bdev_type == policy, or
// any target when policy is empty) with the highest score*free
// heuristic. score is the blob's requested score; callers hold no lock
// on e.targetMu.
func (e *Engine) pickTarget(policy types.BdevType, score float64, need uint64) (*targetEntry, error) {
	e.targetMu.RLock()
	defer e.targetMu.RUnlock()

	var best *targetEntry
	var bestVal float64
	for _, te := range e.targets {
		if policy != "" && te.target.BdevType != policy {
			continue
		}
		val := score * float64(te.target.Free)
		if te.target.Free >= need && (best == nil || val > bestVal) {
			best = te
			bestVal = val
		}
	}
	if best == nil {
		// No target currently has room; try evicting from the single
		// best-scoring compatible target to make space.
		for _, te := range e.targets {
			if policy != "" && te.target.BdevType != policy {
				continue
			}
			if best == nil || te.target.Free > best.target.Free {
				best = te
			}
		}
		if best == nil {
			return nil, taxonomy.New(taxonomy.TargetFull)
		}
		if !e.evict(best, need) {
			return nil, taxonomy.New(taxonomy.TargetFull)
		}
	}
	return best, nil
}

// evict drops resident blobs from te until at least need bytes are
// free, lowest score first, ties by least-recently-used, then by
// largest size (spec.md 4.G). Evicted blobs keep their metadata and
// their backing bytes; only Resident flips to false, so GetBlob can
// rematerialize them transparently.
func (e *Engine) evict(te *targetEntry, need uint64) bool {
	type candidate struct {
		blob  *types.Blob
		chunk int
	}
	var candidates []candidate

	e.blobMu.RLock()
	for _, b := range e.blobs {
		for i, c := range b.Chunks {
			if c.TargetID == te.target.ID && c.Resident {
				candidates = append(candidates, candidate{blob: b, chunk: i})
			}
		}
	}
	e.blobMu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		bi, bj := candidates[i].blob, candidates[j].blob
		if bi.Score != bj.Score {
			return bi.Score < bj.Score
		}
		if !bi.AccessAt.Equal(bj.AccessAt) {
			return bi.AccessAt.Before(bj.AccessAt)
		}
		return bi.Size > bj.Size
	})

	for _, c := range candidates {
		if te.target.Free >= need {
			break
		}
		chunk := &c.blob.Chunks[c.chunk]
		if !chunk.Resident {
			continue
		}
		chunk.Resident = false
		te.target.Free += chunk.Length
		_ = e.store.putBlob(c.blob)
	}
	_ = e.store.putTarget(te.target)
	return te.target.Free >= need
}

// ReorganizeBlob re-scores a blob and migrates any chunk whose current
// target is no longer the best placement for the new score.
func (e *Engine) ReorganizeBlob(tag types.TagId, name string, newScore float64) error {
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
	e.blobMu.Unlock()

	tagMeta, err := e.tagByID(tag)
	if err != nil {
		return err
	}

	b.Score = newScore
	for i := range b.Chunks {
		c := &b.Chunks[i]
		if !c.Resident {
			continue
		}
		best, err := e.pickTarget(tagMeta.Policy, newScore, c.Length)
		if err != nil || best.target.ID == c.TargetID {
			continue
		}
		if err := e.migrateChunk(b, c, best); err != nil {
			return err
		}
	}
	return e.store.putBlob(b)
}

func (e *Engine) migrateChunk(b *types.Blob, c *types.ChunkRef, dst *targetEntry) error {
	e.targetMu.RLock()
	src, ok := e.targets[c.TargetID]
	e.targetMu.RUnlock()
	if !ok {
		return taxonomy.New(taxonomy.TargetFull)
	}

	buf := make([]byte, c.Length)
	if err := readChunk(src, chunkFileName(b.TagID, b.Name), buf, int64(c.Offset)); err != nil {
		return taxonomy.Wrap(taxonomy.IOError, err)
	}
	if err := writeChunk(dst, chunkFileName(b.TagID, b.Name), buf, int64(c.Offset)); err != nil {
		return taxonomy.Wrap(taxonomy.IOError, err)
	}

	e.targetMu.Lock()
	src.target.Free += c.Length
	dst.target.Free -= c.Length
	_ = e.store.putTarget(src.target)
	_ = e.store.putTarget(dst.target)
	e.targetMu.Unlock()

	c.TargetID = dst.target.ID
	return nil
}
