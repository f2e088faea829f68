package segment

import "unsafe"

// Offset is a typed, relocatable handle: a byte offset from a segment's
// base rather than a real pointer. The zero value is null. Resolve must
// be called against the same segment the offset was allocated from.
type Offset[T any] uint64

// Null is the zero Offset, matching the convention that offset 0 (inside
// the header) never holds a live allocation.
func Null[T any]() Offset[T] { return 0 }

// IsNull reports whether o is the null offset.
func (o Offset[T]) IsNull() bool { return o == 0 }

// Resolve borrows a *T backed by seg's mapped bytes at offset o. The
// returned pointer is only valid for as long as seg stays mapped.
func (o Offset[T]) Resolve(seg *Segment) *T {
	if o.IsNull() {
		return nil
	}
	return (*T)(unsafe.Pointer(&seg.data[o]))
}

// Alloc allocates zeroed space for a T in seg's arena and returns both
// its offset and a resolved pointer to it.
func Alloc[T any](seg *Segment) (Offset[T], *T, error) {
	var zero T
	size := uint64(unsafe.Sizeof(zero))
	off, err := seg.Allocate(size)
	if err != nil {
		return 0, nil, err
	}
	ptr := (*T)(unsafe.Pointer(&seg.data[off]))
	*ptr = zero
	return Offset[T](off), ptr, nil
}

// AllocSlice allocates zeroed space for n contiguous Ts and returns the
// offset of the first element.
func AllocSlice[T any](seg *Segment, n int) (Offset[T], error) {
	var zero T
	elemSize := uint64(unsafe.Sizeof(zero))
	off, err := seg.Allocate(elemSize * uint64(n))
	if err != nil {
		return 0, err
	}
	return Offset[T](off), nil
}

// Index resolves the i'th element of a slice allocated with AllocSlice.
func (o Offset[T]) Index(seg *Segment, i int) *T {
	var zero T
	elemSize := unsafe.Sizeof(zero)
	base := uintptr(o) + uintptr(i)*elemSize
	return (*T)(unsafe.Pointer(&seg.data[base]))
}

// ptrAt resolves a raw byte offset into an unsafe.Pointer, for internal
// use by allocators that need to reinterpret a freed slot's storage.
func ptrAt(seg *Segment, off uint64) unsafe.Pointer {
	return unsafe.Pointer(&seg.data[off])
}
