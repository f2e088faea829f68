/*
Package segment implements the named, process-crash-survivable shared
memory region the context runtime's IPC fabric is built on.

A segment is a memory-mapped file (POSIX shared memory object on Linux,
a plain file elsewhere) divided into a fixed header and a heap-bump
arena. The header carries the allocation cursor itself, so every attached
process advances the same cursor with a single atomic compare-and-swap,
so no process-local bookkeeping can drift out of sync with another.

Every pointer stored in the segment is an 8-byte offset from the segment
base (Offset[T]) rather than a real address, so the region is relocatable
per process: two processes that map the same segment at different base
addresses still agree on what an Offset[T] refers to.

# Allocation model

Allocate is a strict CAS-bounded bump: it only advances the cursor if the
new end stays within the max offset recorded at segment creation, and
never mutates that bound on failure. (An earlier revision of this
allocator advanced the cursor before checking the bound and widened the
bound on overflow; that behavior was incidental, not a contract, and is
not reproduced here.)

# See also

  - pkg/ipc for the lane ring buffers allocated out of a segment's arena
  - pkg/types for the Future/Task records a segment stores
*/
package segment
