//go:build linux

package aio

import (
	"os"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// directAlignment is the sector size O_DIRECT requires buffers and
// offsets to be multiples of on most Linux filesystems.
const directAlignment = 512

// DirectBackend opens targets with O_DIRECT via golang.org/x/sys/unix
// Pread/Pwrite. A Read or Write whose buffer or offset isn't aligned to
// directAlignment silently falls back to a buffered fd for that one
// target, per spec.md 4.H.
type DirectBackend struct{}

// NewDirectBackend builds the O_DIRECT backend.
func NewDirectBackend() *DirectBackend { return &DirectBackend{} }

func (DirectBackend) Open(path string, flags OpenFlag) (Handle, error) {
	osFlags := os.O_RDONLY
	switch {
	case flags&ReadWrite != 0:
		osFlags = os.O_RDWR
	case flags&ReadOnly != 0:
		osFlags = os.O_RDONLY
	}
	if flags&Create != 0 {
		osFlags |= os.O_CREATE
	}

	direct := flags&Direct != 0
	openFlags := osFlags
	if direct {
		openFlags |= syscall.O_DIRECT
	}

	fd, err := unix.Open(path, openFlags, 0o644)
	if err != nil && direct {
		// O_DIRECT unsupported by this filesystem; fall back silently.
		direct = false
		fd, err = unix.Open(path, osFlags, 0o644)
	}
	if err != nil {
		return nil, err
	}
	return &directHandle{
		fd:         fd,
		path:       path,
		baseFlags:  osFlags,
		direct:     direct,
		tokenTable: newTokenTable(),
	}, nil
}

type directHandle struct {
	fd        int
	path      string
	baseFlags int
	direct    bool

	fallbackOnce sync.Once
	fallbackFd   int
	fallbackErr  error

	*tokenTable
}

func (h *directHandle) Close() error {
	if h.fallbackFd != 0 {
		unix.Close(h.fallbackFd)
	}
	return unix.Close(h.fd)
}

func (h *directHandle) Truncate(size int64) error { return unix.Ftruncate(h.fd, size) }

func aligned(buf []byte, off int64) bool {
	if off%directAlignment != 0 || len(buf)%directAlignment != 0 || len(buf) == 0 {
		return false
	}
	return uintptr(unsafe.Pointer(&buf[0]))%directAlignment == 0
}

// fdFor returns the fd to actually issue the syscall against: the
// handle's own fd (opened with O_DIRECT only in direct mode) when the
// handle isn't in direct mode or the request is aligned, otherwise a
// lazily-opened buffered fd on the same path.
func (h *directHandle) fdFor(buf []byte, off int64) (int, error) {
	if !h.direct || aligned(buf, off) {
		return h.fd, nil
	}
	h.fallbackOnce.Do(func() {
		h.fallbackFd, h.fallbackErr = unix.Open(h.path, h.baseFlags, 0o644)
	})
	return h.fallbackFd, h.fallbackErr
}

func (h *directHandle) Read(buf []byte, off int64) (Token, error) {
	fd, err := h.fdFor(buf, off)
	if err != nil {
		return h.resolve(0, err), nil
	}
	n, err := unix.Pread(fd, buf, off)
	return h.resolve(n, err), nil
}

func (h *directHandle) Write(buf []byte, off int64) (Token, error) {
	fd, err := h.fdFor(buf, off)
	if err != nil {
		return h.resolve(0, err), nil
	}
	n, err := unix.Pwrite(fd, buf, off)
	return h.resolve(n, err), nil
}
