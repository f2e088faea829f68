package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCollectUpdatesGauges(t *testing.T) {
	source := func() []WorkerStats {
		return []WorkerStats{{
			WorkerID:        3,
			IsRunning:       true,
			IsActive:        false,
			IdleIterations:  42,
			NumQueuedTasks:  5,
			NumBlockedTasks: 1,
			NumPeriodicTask: 2,
			SuspendPeriodUs: 1000,
		}}
	}

	c := NewCollector(source, time.Hour)
	c.collect()

	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerIsRunning.WithLabelValues("3")))
	assert.Equal(t, float64(0), testutil.ToFloat64(WorkerIsActive.WithLabelValues("3")))
	assert.Equal(t, float64(42), testutil.ToFloat64(WorkerIdleIterations.WithLabelValues("3")))
	assert.Equal(t, float64(5), testutil.ToFloat64(WorkerQueuedTasks.WithLabelValues("3")))
	assert.Equal(t, float64(1), testutil.ToFloat64(WorkerBlockedTasks.WithLabelValues("3")))
	assert.Equal(t, float64(2), testutil.ToFloat64(WorkerPeriodicTasks.WithLabelValues("3")))
	assert.Equal(t, float64(1000), testutil.ToFloat64(WorkerSuspendPeriodUs.WithLabelValues("3")))
}

func TestCollectorStartStopDoesNotPanic(t *testing.T) {
	calls := make(chan struct{}, 4)
	source := func() []WorkerStats {
		select {
		case calls <- struct{}{}:
		default:
		}
		return nil
	}

	c := NewCollector(source, 5*time.Millisecond)
	c.Start()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("collector never polled its source")
	}

	c.Stop()
}

func TestNewCollectorDefaultsNonPositivePeriod(t *testing.T) {
	c := NewCollector(func() []WorkerStats { return nil }, 0)
	assert.Equal(t, 15*time.Second, c.period)
}
