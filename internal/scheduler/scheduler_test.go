package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

func TestGetThinkTimeCombinesConstantAndPerTask(t *testing.T) {
	b := NewBase("s1", map[string]float64{"w": 2}, map[string]float64{"w": 0.5}, 0)
	job := workload.New(1, 0, "w", 4, 1, 1, 1, false)
	assert.Equal(t, 2+0.5*4, b.GetThinkTime(job))
}

func TestGetThinkTimeDefaultsMissingWorkloadToZero(t *testing.T) {
	b := NewBase("s1", nil, nil, 0)
	job := workload.New(1, 0, "other", 4, 1, 1, 1, false)
	assert.Equal(t, 0.0, b.GetThinkTime(job))
}

func TestEnqueueDequeueIsFIFO(t *testing.T) {
	b := NewBase("s1", nil, nil, 0)
	j1 := workload.New(1, 0, "w", 1, 1, 1, 1, false)
	j2 := workload.New(2, 0, "w", 1, 1, 1, 1, false)
	b.Enqueue(j1, 10)
	b.Enqueue(j2, 20)

	assert.Equal(t, 10.0, j1.LastEnqueued)
	require.Len(t, b.PendingQueue, 2)
	assert.Same(t, j1, b.Dequeue())
	assert.Same(t, j2, b.Dequeue())
}

func TestScheduleJobPlacesFirstFitAcrossMachines(t *testing.T) {
	cs, err := cellstate.New(3, 10, 10, cellstate.ResourceFit, cellstate.Incremental)
	require.NoError(t, err)
	b := NewBase("s1", nil, nil, 0)

	// Each task needs 6 cpu; a single machine (10 cpu) can only fit one
	// task, so a 2-task job must spread across two machines.
	job := workload.New(1, 0, "w", 2, 6, 1, 5, false)
	deltas, err := b.ScheduleJob(job, cs, false)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, 0, deltas[0].MachineID)
	assert.Equal(t, 1, deltas[1].MachineID)
	assert.Equal(t, 6.0, deltas[0].Cpus)
}

func TestScheduleJobBlacklistsTrailingMachines(t *testing.T) {
	cs, err := cellstate.New(3, 10, 10, cellstate.ResourceFit, cellstate.Incremental)
	require.NoError(t, err)
	b := NewBase("s1", nil, nil, 2)

	job := workload.New(1, 0, "w", 1, 6, 1, 5, false)
	deltas, err := b.ScheduleJob(job, cs, false)
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, 0, deltas[0].MachineID)
}

func TestScheduleJobReturnsNoDeltasWhenNothingFits(t *testing.T) {
	cs, err := cellstate.New(1, 10, 10, cellstate.ResourceFit, cellstate.Incremental)
	require.NoError(t, err)
	b := NewBase("s1", nil, nil, 0)

	job := workload.New(1, 0, "w", 1, 100, 1, 5, false)
	deltas, err := b.ScheduleJob(job, cs, false)
	require.NoError(t, err)
	assert.Empty(t, deltas)
}
