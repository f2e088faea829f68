package registry

import (
	"testing"
	"time"

	"github.com/iowarp/context-runtime/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask() *types.Task {
	lane := types.LaneId(3)
	return &types.Task{
		ID:          types.TaskId("42"),
		PoolID:      types.PoolId{Major: 1, Minor: 0},
		ContainerID: types.ContainerId(7),
		MethodID:    types.MethodFirstUser,
		Payload:     []byte("hello world"),
		FutureID:    types.TaskId("99"),
		LaneHint:    &lane,
		Replicated:  true,
		Destination: []types.NodeId{1, 2, 3},
		SubmittedAt: time.Unix(1700000000, 0).UTC(),
	}
}

// save_task \circ load_task = id (spec.md 8).
func TestJSONSaveLoadTaskRoundTrip(t *testing.T) {
	task := sampleTask()

	data, err := JSONSaveTask(task)
	require.NoError(t, err)

	got, err := JSONLoadTask(data)
	require.NoError(t, err)

	assert.Equal(t, task, got)
}

// local_save_out \circ local_load_in = id, with Payload replaced by the
// completed result (spec.md 8).
func TestJSONLocalSaveOutLoadInRoundTrip(t *testing.T) {
	task := sampleTask()
	result := []byte("computed result")

	local, err := JSONLocalSaveOut(task, result)
	require.NoError(t, err)

	got, err := JSONLocalLoadIn(local)
	require.NoError(t, err)

	want := *task
	want.Payload = result
	assert.Equal(t, &want, got)
}

func TestJSONLocalLoadInRejectsForeignType(t *testing.T) {
	_, err := JSONLocalLoadIn("not a local record")
	assert.Error(t, err)
}
