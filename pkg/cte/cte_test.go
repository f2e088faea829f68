package cte

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	_, err = e.RegisterTarget("ram0", types.BdevRam, 1<<20)
	require.NoError(t, err)
	return e
}

func TestPutGetBlobRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("dataset-a", "")
	require.NoError(t, err)

	require.NoError(t, e.PutBlob(tag, "chunk0", []byte("hello world"), 0, 0.8))

	got, err := e.GetBlob(tag, "chunk0", 11, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), got)

	size, err := e.GetBlobSize(tag, "chunk0")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), size)
}

func TestPutBlobZeroSizeIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("dataset-b", "")
	require.NoError(t, err)

	require.NoError(t, e.PutBlob(tag, "empty", nil, 0, 0.5))
	_, err = e.GetBlobSize(tag, "empty")
	assert.ErrorIs(t, err, taxonomy.New(taxonomy.BlobNotFound))
}

func TestPutBlobPartialWritesUnionCorrectly(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("dataset-c", "")
	require.NoError(t, err)

	require.NoError(t, e.PutBlob(tag, "b", []byte("AAAA"), 0, 0.5))
	require.NoError(t, e.PutBlob(tag, "b", []byte("BB"), 4, 0.5))

	got, err := e.GetBlob(tag, "b", 6, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("AAAABB"), got)
}

func TestPutBlobConcurrentDisjointOffsetsSerialize(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("dataset-d", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buf := []byte{byte('A' + i)}
			require.NoError(t, e.PutBlob(tag, "concurrent", buf, uint64(i), 0.5))
		}(i)
	}
	wg.Wait()

	size, err := e.GetBlobSize(tag, "concurrent")
	require.NoError(t, err)
	assert.Equal(t, uint64(8), size)
}

func TestDelBlobRemovesMetadataAndFreesCapacity(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("dataset-e", "")
	require.NoError(t, err)

	data := make([]byte, 1024)
	require.NoError(t, e.PutBlob(tag, "x", data, 0, 0.5))

	targetsBefore := e.Targets()[0].Free
	require.NoError(t, e.DelBlob(tag, "x"))
	targetsAfter := e.Targets()[0].Free
	assert.Equal(t, targetsBefore+1024, targetsAfter)

	_, err = e.GetBlobSize(tag, "x")
	assert.ErrorIs(t, err, taxonomy.New(taxonomy.BlobNotFound))
}

func TestDelTagRemovesAllContainedBlobs(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("dataset-f", "")
	require.NoError(t, err)
	require.NoError(t, e.PutBlob(tag, "one", []byte("1"), 0, 0.5))
	require.NoError(t, e.PutBlob(tag, "two", []byte("2"), 0, 0.5))

	require.NoError(t, e.DelTag(tag))
	assert.Empty(t, e.GetContainedBlobs(tag))
	_, err = e.GetOrCreateTag("dataset-f", "")
	require.NoError(t, err, "tag name must be reusable after deletion")
}

func TestPlacementPrefersCompatibleHigherScoreFreeTarget(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RegisterTarget("nvme0", types.BdevNvme, 1<<20)
	require.NoError(t, err)

	tag, err := e.GetOrCreateTag("nvme-only", types.BdevNvme)
	require.NoError(t, err)
	require.NoError(t, e.PutBlob(tag, "x", []byte("data"), 0, 0.9))

	size, err := e.GetBlobSize(tag, "x")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), size)

	for _, target := range e.Targets() {
		if target.ID == "ram0" {
			assert.Equal(t, target.Capacity, target.Free, "ram target must be untouched by an nvme-policy tag")
		}
	}
}

func TestEvictionDropsLowestScoreFirst(t *testing.T) {
	e, err := NewEngine(t.TempDir())
	require.NoError(t, err)
	defer e.Close()
	_, err = e.RegisterTarget("small", types.BdevRam, 10)
	require.NoError(t, err)

	tag, err := e.GetOrCreateTag("evictable", "")
	require.NoError(t, err)

	require.NoError(t, e.PutBlob(tag, "low-score", make([]byte, 5), 0, 0.1))
	time.Sleep(time.Millisecond)
	require.NoError(t, e.PutBlob(tag, "high-score", make([]byte, 5), 0, 0.9))

	// Target is now full (10/10). A new write needs eviction: low-score
	// must go first.
	require.NoError(t, e.PutBlob(tag, "newcomer", make([]byte, 5), 0, 0.9))

	lowScore, err := e.BlobQuery("^evictable$", "^low-score$", 1)
	require.NoError(t, err)
	require.Len(t, lowScore, 1)
	assert.False(t, lowScore[0].Chunks[0].Resident, "low-score blob must be the one evicted")
	highScore, err := e.BlobQuery("^evictable$", "^high-score$", 1)
	require.NoError(t, err)
	require.Len(t, highScore, 1)
	assert.True(t, highScore[0].Chunks[0].Resident, "high-score blob must stay resident")

	got, err := e.GetBlob(tag, "low-score", 5, 0)
	require.NoError(t, err, "evicted blob must rematerialize on read")
	assert.Len(t, got, 5)
}

func TestReorganizeBlobMigratesToBetterTarget(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RegisterTarget("ram1", types.BdevRam, 1<<20)
	require.NoError(t, err)

	tag, err := e.GetOrCreateTag("reorg", "")
	require.NoError(t, err)
	require.NoError(t, e.PutBlob(tag, "x", []byte("payload"), 0, 0.1))

	require.NoError(t, e.ReorganizeBlob(tag, "x", 0.95))

	got, err := e.GetBlob(tag, "x", 7, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestTagQueryRespectsMaxAndRegex(t *testing.T) {
	e := newTestEngine(t)
	for _, name := range []string{"alpha-1", "alpha-2", "beta-1"} {
		_, err := e.GetOrCreateTag(name, "")
		require.NoError(t, err)
	}
	tags, err := e.TagQuery("^alpha-", 10)
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	capped, err := e.TagQuery("^alpha-", 1)
	require.NoError(t, err)
	assert.Len(t, capped, 1)
}

func TestBlobQueryFiltersByTagAndBlobPattern(t *testing.T) {
	e := newTestEngine(t)
	tagA, err := e.GetOrCreateTag("tagA", "")
	require.NoError(t, err)
	tagB, err := e.GetOrCreateTag("tagB", "")
	require.NoError(t, err)
	require.NoError(t, e.PutBlob(tagA, "foo", []byte("1"), 0, 0.5))
	require.NoError(t, e.PutBlob(tagB, "foo", []byte("1"), 0, 0.5))
	require.NoError(t, e.PutBlob(tagA, "bar", []byte("1"), 0, 0.5))

	blobs, err := e.BlobQuery("^tagA$", "^foo$", 10)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, "foo", blobs[0].Name)
}

func TestGetBlobUnknownReturnsBlobNotFound(t *testing.T) {
	e := newTestEngine(t)
	tag, err := e.GetOrCreateTag("empty-tag", "")
	require.NoError(t, err)
	_, err = e.GetBlob(tag, "missing", 1, 0)
	assert.ErrorIs(t, err, taxonomy.New(taxonomy.BlobNotFound))
}
