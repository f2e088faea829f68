package registry

import (
	"encoding/json"
	"fmt"

	"github.com/iowarp/context-runtime/pkg/types"
)

// JSONSaveTask and JSONLoadTask are the default save_task/load_task
// pair (spec.md 4.C): a task travels whole, JSON-encoded, for remote
// execution. Any module whose tasks need nothing cleverer can wire
// these in directly.
func JSONSaveTask(task *types.Task) ([]byte, error) {
	return json.Marshal(task)
}

func JSONLoadTask(data []byte) (*types.Task, error) {
	var t types.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// localRecord is the cheap local-archive format local_save_out
// produces: the original task plus its result, kept in-process so the
// result payload never has to leave the segment on its way to whatever
// reads it next (e.g. a dependent CAE task).
type localRecord struct {
	Task   *types.Task
	Result []byte
}

// JSONLocalSaveOut packages a completed task and its result for local
// reuse without a wire round-trip.
func JSONLocalSaveOut(task *types.Task, result []byte) (any, error) {
	return &localRecord{Task: task, Result: result}, nil
}

// JSONLocalLoadIn is JSONLocalSaveOut's inverse: it reconstructs a task
// carrying the original result as its Payload, so a dependent task can
// consume it as input without caring whether the value crossed a wire.
func JSONLocalLoadIn(local any) (*types.Task, error) {
	rec, ok := local.(*localRecord)
	if !ok {
		return nil, fmt.Errorf("registry: local_load_in: unexpected local record type %T", local)
	}
	out := *rec.Task
	out.Payload = rec.Result
	return &out, nil
}
