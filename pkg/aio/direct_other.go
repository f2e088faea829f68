//go:build !linux

package aio

// NewDirectBackend is unavailable off Linux; callers should use
// NewSyncBackend instead. Kept so Default doesn't need a build tag of
// its own.
func NewDirectBackend() Backend { return NewSyncBackend() }
