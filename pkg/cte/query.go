package cte

import (
	"regexp"

	"github.com/iowarp/context-runtime/pkg/types"
)

// TagQuery returns up to max tags whose name matches the regex,
// holding a single read lock on the tag directory for the duration.
func (e *Engine) TagQuery(pattern string, max int) ([]types.Tag, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	e.tagMu.RLock()
	defer e.tagMu.RUnlock()

	var out []types.Tag
	for _, t := range e.tags {
		if len(out) >= max {
			break
		}
		if re.MatchString(t.Name) {
			out = append(out, *t)
		}
	}
	return out, nil
}

// BlobQuery returns up to max blobs whose tag name matches tagPattern
// and blob name matches blobPattern.
func (e *Engine) BlobQuery(tagPattern, blobPattern string, max int) ([]types.Blob, error) {
	tagRe, err := regexp.Compile(tagPattern)
	if err != nil {
		return nil, err
	}
	blobRe, err := regexp.Compile(blobPattern)
	if err != nil {
		return nil, err
	}

	e.tagMu.RLock()
	tagNames := make(map[types.TagId]string, len(e.tags))
	for id, t := range e.tags {
		if tagRe.MatchString(t.Name) {
			tagNames[id] = t.Name
		}
	}
	e.tagMu.RUnlock()

	e.blobMu.RLock()
	defer e.blobMu.RUnlock()
	var out []types.Blob
	for _, b := range e.blobs {
		if len(out) >= max {
			break
		}
		if _, ok := tagNames[b.TagID]; !ok {
			continue
		}
		if blobRe.MatchString(b.Name) {
			out = append(out, *b)
		}
	}
	return out, nil
}
