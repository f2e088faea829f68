package scheduler

import (
	"context"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/iowarp/context-runtime/pkg/types"
)

// CoFuture wraps a types.Future with a park-on-not-ready Await: the
// calling task's goroutine blocks until the future reaches a terminal
// state, and completion re-enqueues exactly one waker per waiter (every
// registered waker fires once, per types.Future.AddWaker).
type CoFuture struct {
	future *types.Future
}

// NewCoFuture wraps an existing future for cooperative awaiting.
func NewCoFuture(future *types.Future) *CoFuture {
	return &CoFuture{future: future}
}

// Await blocks until the wrapped future is terminal or ctx is cancelled.
func (c *CoFuture) Await(ctx context.Context) ([]byte, *taxonomy.RuntimeError) {
	if state, result, err := c.future.Poll(); state.Terminal() {
		return result, err
	}
	done := make(chan struct{})
	if !c.future.AddWaker(func() { close(done) }) {
		_, result, err := c.future.Poll()
		return result, err
	}
	markBlocked(ctx, 1)
	defer markBlocked(ctx, -1)
	select {
	case <-done:
		_, result, err := c.future.Poll()
		return result, err
	case <-ctx.Done():
		return nil, taxonomy.New(taxonomy.Timeout)
	}
}

// Future returns the wrapped future.
func (c *CoFuture) Future() *types.Future { return c.future }
