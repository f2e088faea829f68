package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
)

// DefaultName is the segment name used when the environment does not
// override it.
const DefaultName = "/chimaera_main_segment"

// NameEnvVar is the environment variable that overrides the segment name.
const NameEnvVar = "CHIMAERA_SEGMENT_NAME"

const (
	headerMagic      = 0x43484948 // "CHIH"
	headerVersion    = 1
	offMagic         = 0
	offVersion       = 4
	offHeapCursor    = 8
	offHeapMax       = 16
	offSegmentID     = 24
	HeaderSize       = 64
	DefaultArenaSize = 256 << 20 // 256MiB
)

// Segment is a named, process-crash-survivable memory region: a header
// (version, segment id, allocator bounds) followed by a heap-bump arena.
type Segment struct {
	Name string
	path string
	file *os.File
	data []byte
}

// ResolvedName returns the effective segment name, honoring NameEnvVar.
func ResolvedName() string {
	if v := os.Getenv(NameEnvVar); v != "" {
		return v
	}
	return DefaultName
}

// backingPath turns a logical segment name into a filesystem path. On
// Linux this lands in the tmpfs-backed /dev/shm so the region is true
// shared memory; elsewhere it falls back to a regular temp file.
func backingPath(name string) string {
	base := filepath.Base(name)
	if runtime.GOOS == "linux" {
		if _, err := os.Stat("/dev/shm"); err == nil {
			return filepath.Join("/dev/shm", base)
		}
	}
	return filepath.Join(os.TempDir(), base)
}

// Create allocates a new segment of the given total size (header + arena)
// and initializes its header. If a segment of this name already exists it
// is opened instead, matching the "creation is idempotent" discipline
// pools rely on.
func Create(name string, size uint64) (*Segment, error) {
	if size < HeaderSize {
		size = HeaderSize
	}
	path := backingPath(name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("segment: open backing file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	fresh := info.Size() == 0
	if info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			return nil, fmt.Errorf("segment: truncate: %w", err)
		}
	} else {
		size = uint64(info.Size())
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("segment: mmap: %w", err)
	}

	s := &Segment{Name: name, path: path, file: f, data: data}
	if fresh {
		s.initHeader(size)
	}
	return s, nil
}

// Open attaches to an existing segment by name without creating it.
func Open(name string) (*Segment, error) {
	path := backingPath(name)
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, taxonomy.Wrap(taxonomy.NotInitialized, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("segment: mmap: %w", err)
	}
	s := &Segment{Name: name, path: path, file: f, data: data}
	if s.magic() != headerMagic {
		s.Close()
		return nil, taxonomy.New(taxonomy.NotInitialized)
	}
	return s, nil
}

func (s *Segment) initHeader(size uint64) {
	s.putUint32(offMagic, headerMagic)
	s.putUint32(offVersion, headerVersion)
	atomic.StoreUint64(s.uint64At(offHeapCursor), HeaderSize)
	atomic.StoreUint64(s.uint64At(offHeapMax), size)
	id := uuid.New()
	copy(s.data[offSegmentID:offSegmentID+16], id[:])
}

func (s *Segment) magic() uint32 {
	return *(*uint32)(unsafe.Pointer(&s.data[offMagic]))
}

func (s *Segment) putUint32(off int, v uint32) {
	*(*uint32)(unsafe.Pointer(&s.data[off])) = v
}

func (s *Segment) uint64At(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&s.data[off]))
}

// SegmentID returns the UUID stamped into the header at creation.
func (s *Segment) SegmentID() uuid.UUID {
	var id uuid.UUID
	copy(id[:], s.data[offSegmentID:offSegmentID+16])
	return id
}

// Size returns the total mapped size (header + arena).
func (s *Segment) Size() uint64 { return uint64(len(s.data)) }

// Bytes exposes the raw mapped region so Offset[T] can resolve into it.
// Callers must not reslice or retain it beyond the segment's lifetime.
func (s *Segment) Bytes() []byte { return s.data }

// Allocate advances the shared heap cursor by size and returns the
// offset of the allocated region. It is a strict CAS-bounded bump: the
// cursor only advances if the new end stays within the (immutable) max
// offset recorded at creation; on failure the cursor and bound are both
// left untouched and OutOfMemory is returned.
func (s *Segment) Allocate(size uint64) (uint64, error) {
	size = align8(size)
	cursorPtr := s.uint64At(offHeapCursor)
	maxOffset := atomic.LoadUint64(s.uint64At(offHeapMax))
	for {
		cur := atomic.LoadUint64(cursorPtr)
		end := cur + size
		if end > maxOffset {
			return 0, taxonomy.New(taxonomy.OutOfMemory)
		}
		if atomic.CompareAndSwapUint64(cursorPtr, cur, end) {
			return cur, nil
		}
	}
}

// HeapOffset returns the current heap cursor (bytes allocated so far).
func (s *Segment) HeapOffset() uint64 {
	return atomic.LoadUint64(s.uint64At(offHeapCursor))
}

// HeapMax returns the immutable maximum heap offset.
func (s *Segment) HeapMax() uint64 {
	return atomic.LoadUint64(s.uint64At(offHeapMax))
}

func align8(n uint64) uint64 {
	return (n + 7) &^ 7
}

// Close unmaps and closes the backing file. The segment itself survives
// on disk/tmpfs for the next process to Open.
func (s *Segment) Close() error {
	if s.data != nil {
		_ = unix.Munmap(s.data)
		s.data = nil
	}
	return s.file.Close()
}
