package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumTasksToScheduleFloorsToTaskMultiple(t *testing.T) {
	j := New(1, 0, "w", 10, 10, 10, 5, false)

	assert.Equal(t, uint32(5), j.NumTasksToSchedule(55, 100))
	assert.Equal(t, uint32(5), j.NumTasksToSchedule(100, 55))
	assert.Equal(t, uint32(0), j.NumTasksToSchedule(0, 100))
	assert.Equal(t, uint32(0), j.NumTasksToSchedule(100, 0))
}

func TestNumTasksToScheduleCapsAtUnscheduled(t *testing.T) {
	j := New(1, 0, "w", 3, 10, 10, 5, false)
	assert.Equal(t, uint32(3), j.NumTasksToSchedule(1000, 1000))
}

func TestUpdateTimeInQueueStatsOnlyCountsFirstAttemptOnce(t *testing.T) {
	j := New(1, 0, "w", 1, 10, 10, 5, false)
	j.LastEnqueued = 0

	j.UpdateTimeInQueueStats(10)
	assert.Equal(t, 10.0, j.TimeInQueueTillFirstScheduled)
	assert.Equal(t, 10.0, j.TimeInQueueTillFullyScheduled)

	j.NumSchedulingAttempts = 1
	j.LastEnqueued = 10
	j.UpdateTimeInQueueStats(25)
	assert.Equal(t, 10.0, j.TimeInQueueTillFirstScheduled) // unchanged
	assert.Equal(t, 25.0, j.TimeInQueueTillFullyScheduled) // 10 + 15
}

func TestWorkloadAddJobRejectsMismatch(t *testing.T) {
	w := NewWorkload("A")
	j := New(1, 0, "B", 1, 10, 10, 5, false)
	err := w.AddJob(j)
	require.ErrorIs(t, err, ErrWorkloadMismatch)
}

func TestWorkloadCopyIsDeep(t *testing.T) {
	w := NewWorkload("A")
	j := New(1, 0, "A", 5, 10, 10, 5, false)
	require.NoError(t, w.AddJob(j))

	cp := w.Copy()
	cp.jobs[0].UnscheduledTasks = 0

	assert.Equal(t, uint32(5), w.Jobs()[0].UnscheduledTasks)
	assert.Equal(t, uint32(0), cp.Jobs()[0].UnscheduledTasks)
}
