/*
Package log provides structured logging for the context runtime using
zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable levels, and a console mode
for interactive use. All logs carry a timestamp and, where relevant, a
worker_id/pool_id/node_id/task_id field so log aggregation can slice by
any of the runtime's identifiers.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Str("task_id", string(taskID)).Msg("task claimed")

	workerLog := log.WithWorkerID(uint32(workerID))
	workerLog.Warn().Int("idle_iterations", n).Msg("suspend period doubled")

# Design

A single package-level zerolog.Logger is initialized once via Init and
read concurrently by every package; child loggers created with
WithComponent/WithNodeID/WithWorkerID/WithPoolID/WithTaskID only add
fields, they never mutate the global instance.
*/
package log
