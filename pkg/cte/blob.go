package cte

import (
	"time"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// PutBlob writes data at offset within (tag, name), creating the blob
// if it doesn't exist. Each call picks its own target for the chunk it
// writes, so two concurrent calls at disjoint offsets may legitimately
// land on different targets; a per-blob lock serializes calls so their
// union -- applied in call order, later writes winning any overlap --
// is the blob's final content.
func (e *Engine) PutBlob(tag types.TagId, name string, data []byte, offset uint64, score float64) error {
	tagMeta, err := e.tagByID(tag)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	key := blobStoreKey(tag, name)
	lock := e.blobLock(key)
	lock.Lock()
	defer lock.Unlock()

	te, err := e.pickTarget(tagMeta.Policy, scoreOrDefault(score), uint64(len(data)))
	if err != nil {
		return err
	}

	if err := writeChunk(te, chunkFileName(tag, name), data, int64(offset)); err != nil {
		return taxonomy.Wrap(taxonomy.IOError, err)
	}

	e.targetMu.Lock()
	te.target.Free -= uint64(len(data))
	_ = e.store.putTarget(te.target)
	e.targetMu.Unlock()

	e.blobMu.Lock()
	b, ok := e.blobs[key]
	if !ok {
		b = &types.Blob{TagID: tag, Name: name, CreatedAt: time.Now()}
		e.blobs[key] = b
	}
	e.blobMu.Unlock()

	b.Chunks = append(b.Chunks, types.ChunkRef{
		TargetID: te.target.ID,
		Offset:   offset,
		Length:   uint64(len(data)),
		Resident: true,
	})
	if end := offset + uint64(len(data)); end > b.Size {
		b.Size = end
	}
	if score > 0 {
		b.Score = score
	}
	b.AccessAt = time.Now()

	return e.store.putBlob(b)
}

func scoreOrDefault(score float64) float64 {
	if score <= 0 {
		return 0.5
	}
	return score
}

// GetBlob reads size bytes starting at offset, rematerializing any
// evicted (unresident) chunk transparently from its backing target.
func (e *Engine) GetBlob(tag types.TagId, name string, size uint64, offset uint64) ([]byte, error) {
	key := blobStoreKey(tag, name)
	lock := e.blobLock(key)
	lock.Lock()
	defer lock.Unlock()

	e.blobMu.RLock()
	b, ok := e.blobs[key]
	e.blobMu.RUnlock()
	if !ok {
		return nil, taxonomy.New(taxonomy.BlobNotFound)
	}

	end := offset + size
	if size == 0 || end > b.Size {
		end = b.Size
	}
	if end < offset {
		return []byte{}, nil
	}
	out := make([]byte, end-offset)

	// Apply chunks in write order so later, overlapping writes win.
	for _, c := range b.Chunks {
		cStart, cEnd := c.Offset, c.Offset+c.Length
		lo, hi := max64(cStart, offset), min64(cEnd, end)
		if lo >= hi {
			continue
		}
		e.targetMu.RLock()
		te, ok := e.targets[c.TargetID]
		e.targetMu.RUnlock()
		if !ok {
			continue
		}
		buf := make([]byte, hi-lo)
		if err := readChunk(te, chunkFileName(tag, name), buf, int64(lo)); err != nil {
			return nil, taxonomy.Wrap(taxonomy.IOError, err)
		}
		copy(out[lo-offset:hi-offset], buf)
		if !c.Resident {
			c.Resident = true
		}
	}

	b.AccessAt = time.Now()
	_ = e.store.putBlob(b)
	return out, nil
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
