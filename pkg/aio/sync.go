package aio

import "os"

// SyncBackend is the portable fallback: every Read/Write runs to
// completion with os.File.ReadAt/WriteAt before the Token it returns
// is handed back. Direct (O_DIRECT) is accepted and ignored.
type SyncBackend struct{}

// NewSyncBackend builds the synchronous fallback backend.
func NewSyncBackend() *SyncBackend { return &SyncBackend{} }

func (SyncBackend) Open(path string, flags OpenFlag) (Handle, error) {
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
	f, err := os.OpenFile(path, osFlags, 0o644)
	if err != nil {
		return nil, err
	}
	return &syncHandle{f: f, tokenTable: newTokenTable()}, nil
}

type syncHandle struct {
	f *os.File
	*tokenTable
}

func (h *syncHandle) Close() error { return h.f.Close() }

func (h *syncHandle) Truncate(size int64) error { return h.f.Truncate(size) }

func (h *syncHandle) Read(buf []byte, off int64) (Token, error) {
	n, err := h.f.ReadAt(buf, off)
	return h.resolve(n, err), nil
}

func (h *syncHandle) Write(buf []byte, off int64) (Token, error) {
	n, err := h.f.WriteAt(buf, off)
	return h.resolve(n, err), nil
}
