package aio

import "runtime"

// Default picks DirectBackend on Linux and SyncBackend everywhere
// else. CTE uses it for every target it registers, whatever the
// target's bdev_type.
func Default() Backend {
	if runtime.GOOS == "linux" {
		return NewDirectBackend()
	}
	return NewSyncBackend()
}
