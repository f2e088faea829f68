/*
Package cte is the Context Transfer Engine: the tag/blob API
(spec.md 4.G) backing every module that wants durable, placement-aware
storage across a set of registered targets.

A Tag is a named, regex-addressable collection of Blobs. A Blob is an
ordered list of Chunks, each resident on exactly one Target; PutBlob
writes (tag, name, offset, len) under a per-blob lock so two concurrent
writers at disjoint offsets never race and their union is the final
content. Chunk placement picks the compatible target (bdev_type
matching the tag's policy, or any target if the tag has none) with the
highest score*free heuristic; ReorganizeBlob re-scores a blob and may
migrate its chunks accordingly. When a target would exceed capacity,
evict marks chunks of the lowest-score blob (ties broken by
least-recently-used, then by largest) unresident and credits their
length back to the target -- metadata and backing bytes both survive --
and GetBlob still reads them from backing storage on next read.

Metadata (tags, blobs, targets) is persisted to a bbolt database so a
restart doesn't lose tag/blob bookkeeping; tag ids are restored from
that store on restart, not regenerated. Chunk bytes live on whatever
aio.Backend the target was registered with.
*/
package cte
