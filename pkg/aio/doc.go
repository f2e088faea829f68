/*
Package aio is the async I/O backend CTE's placement layer reads and
writes chunks through (spec.md 4.H): a uniform open/close/truncate/
read/write/is_complete(Token) surface over whatever concrete transport
a target demands.

Two backends are provided. Sync is the portable fallback: every
operation runs to completion before Read/Write returns and the Token it
hands back is already resolved. Direct (linux-only) opens with O_DIRECT
and issues the syscall via golang.org/x/sys/unix, falling back to a
regular (buffered) file descriptor whenever the caller's buffer or
offset isn't sector-aligned, per spec.md 4.H.

Neither backend overlaps the I/O with the caller's goroutine the way
io_uring or Linux native aio would: reaching the kernel's async ring
from Go without cgo isn't practical, and the spec's own contract for
is_complete -- "-> Option<Result>", a poll that may always say yes --
does not require true overlap. Both backends satisfy the same Token/
is_complete contract a hypothetical io_uring backend would, so CTE's
callers never need to know which one is underneath.
*/
package aio
