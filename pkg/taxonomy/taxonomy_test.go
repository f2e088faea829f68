package taxonomy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeErrorIsMatchesByCode(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(OutOfMemory, cause)

	assert.True(t, errors.Is(err, New(OutOfMemory)))
	assert.False(t, errors.Is(err, New(QueueFull)))
	assert.ErrorIs(t, err, cause)
}

func TestIOErrFormatsErrno(t *testing.T) {
	err := IOErr(28, errors.New("no space left on device"))
	assert.Equal(t, "io-error{errno=28}: no space left on device", err.Error())
	assert.True(t, errors.Is(err, New(IOError)))
}

func TestNewBareErrorFormatsAsCode(t *testing.T) {
	err := New(PoolNotFound)
	assert.Equal(t, string(PoolNotFound), err.Error())
}

func TestWrapWithoutErrnoFormatsCodeAndCause(t *testing.T) {
	err := Wrap(ManifestInvalid, fmt.Errorf("missing field src"))
	assert.Equal(t, "manifest-invalid: missing field src", err.Error())
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		code      Code
		retryable bool
	}{
		{QueueFull, true},
		{Unreachable, true},
		{Fatal, false},
		{Cancelled, false},
		{Timeout, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.retryable, Retryable(c.code), "code %s", c.code)
	}
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(New(Fatal)))
}
