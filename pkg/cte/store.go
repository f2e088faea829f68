package cte

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/iowarp/context-runtime/pkg/types"
)

var (
	bucketTags   = []byte("tags")
	bucketBlobs  = []byte("blobs")
	bucketTarget = []byte("targets")
)

// metaStore is the bbolt-backed persistence layer for tag/blob/target
// bookkeeping. Chunk bytes never pass through here; only metadata does.
type metaStore struct {
	db *bolt.DB
}

func openMetaStore(dataDir string) (*metaStore, error) {
	db, err := bolt.Open(filepath.Join(dataDir, "cte.db"), 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("cte: open metadata store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketTags, bucketBlobs, bucketTarget} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &metaStore{db: db}, nil
}

func (s *metaStore) Close() error { return s.db.Close() }

func (s *metaStore) putTag(tag *types.Tag) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(tag)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTags).Put([]byte(tag.ID.String()), data)
	})
}

func (s *metaStore) deleteTag(id types.TagId) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTags).Delete([]byte(id.String()))
	})
}

func (s *metaStore) loadTags() ([]*types.Tag, error) {
	var tags []*types.Tag
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTags).ForEach(func(k, v []byte) error {
			var tag types.Tag
			if err := json.Unmarshal(v, &tag); err != nil {
				return err
			}
			tags = append(tags, &tag)
			return nil
		})
	})
	return tags, err
}

func blobKey(tag types.TagId, name string) []byte {
	return []byte(tag.String() + "/" + name)
}

func (s *metaStore) putBlob(blob *types.Blob) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(blob)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketBlobs).Put(blobKey(blob.TagID, blob.Name), data)
	})
}

func (s *metaStore) deleteBlob(tag types.TagId, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete(blobKey(tag, name))
	})
}

func (s *metaStore) loadBlobs() ([]*types.Blob, error) {
	var blobs []*types.Blob
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).ForEach(func(k, v []byte) error {
			var blob types.Blob
			if err := json.Unmarshal(v, &blob); err != nil {
				return err
			}
			blobs = append(blobs, &blob)
			return nil
		})
	})
	return blobs, err
}

func (s *metaStore) putTarget(t *types.Target) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTarget).Put([]byte(t.ID), data)
	})
}

func (s *metaStore) loadTargets() ([]*types.Target, error) {
	var targets []*types.Target
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTarget).ForEach(func(k, v []byte) error {
			var target types.Target
			if err := json.Unmarshal(v, &target); err != nil {
				return err
			}
			targets = append(targets, &target)
			return nil
		})
	})
	return targets, err
}
