package types

import (
	"testing"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
	"github.com/stretchr/testify/assert"
)

func TestFutureLifecyclePendingToReady(t *testing.T) {
	f := NewFuture(TaskId("t1"))
	assert.Equal(t, FuturePending, f.State())

	assert.True(t, f.Running())
	assert.Equal(t, FutureRunning, f.State())
	assert.False(t, f.Running(), "a second transition out of pending is a no-op")

	f.Complete([]byte("result"))
	state, result, err := f.Poll()
	assert.Equal(t, FutureReady, state)
	assert.Equal(t, []byte("result"), result)
	assert.Nil(t, err)
	assert.True(t, state.Terminal())
}

func TestFutureFailCarriesTaxonomyCode(t *testing.T) {
	f := NewFuture(TaskId("t2"))
	f.Fail(taxonomy.New(taxonomy.Timeout))

	state, result, err := f.Poll()
	assert.Equal(t, FutureError, state)
	assert.Nil(t, result)
	requireNotNil(t, err)
	assert.Equal(t, taxonomy.Timeout, err.Code)
}

func TestFutureCancelOnlyAffectsPending(t *testing.T) {
	f := NewFuture(TaskId("t3"))
	assert.True(t, f.Cancel())
	assert.Equal(t, FutureCancelled, f.State())

	f2 := NewFuture(TaskId("t4"))
	f2.Running()
	assert.False(t, f2.Cancel(), "a running future is untouched by Cancel")
	assert.Equal(t, FutureRunning, f2.State())
}

func TestFutureFinishIsIdempotentOnceTerminal(t *testing.T) {
	f := NewFuture(TaskId("t5"))
	f.Complete([]byte("first"))
	f.Complete([]byte("second"))

	_, result, _ := f.Poll()
	assert.Equal(t, []byte("first"), result, "a terminal future never re-finishes")
}

func TestFutureAddWakerFiresOnCompletion(t *testing.T) {
	f := NewFuture(TaskId("t6"))
	woke := false
	stillPending := f.AddWaker(func() { woke = true })
	assert.True(t, stillPending)
	assert.False(t, woke)

	f.Complete(nil)
	assert.True(t, woke)
}

func TestFutureAddWakerOnAlreadyTerminalFiresImmediately(t *testing.T) {
	f := NewFuture(TaskId("t7"))
	f.Complete(nil)

	woke := false
	stillPending := f.AddWaker(func() { woke = true })
	assert.False(t, stillPending)
	assert.True(t, woke)
}

func TestFutureStateString(t *testing.T) {
	cases := map[FutureState]string{
		FuturePending:   "pending",
		FutureRunning:   "running",
		FutureReady:     "ready",
		FutureError:     "error",
		FutureCancelled: "cancelled",
		FutureState(99): "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func requireNotNil(t *testing.T, err *taxonomy.RuntimeError) {
	t.Helper()
	if err == nil {
		t.Fatal("expected a non-nil RuntimeError")
	}
}
