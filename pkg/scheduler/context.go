package scheduler

import "context"

type ctxKey struct{}

// withCounters attaches a worker's counters to ctx so co-primitives can
// account for parked ("blocked") tasks without the worker needing to
// instrument every module call by hand.
func withCounters(ctx context.Context, c *counters) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func countersFrom(ctx context.Context) *counters {
	c, _ := ctx.Value(ctxKey{}).(*counters)
	return c
}

func markBlocked(ctx context.Context, delta int64) {
	if c := countersFrom(ctx); c != nil {
		c.blockedTasks.Add(uint64(delta))
	}
}
