package mesos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

func newMesosSim(t *testing.T, numMachines int, cpus, mem float64) (*simulator.Simulator, *cellstate.CellState, *Allocator) {
	t.Helper()
	cs, err := cellstate.New(numMachines, cpus, mem, cellstate.ResourceFit, cellstate.Incremental)
	require.NoError(t, err)
	sim := simulator.New(simcontext.Background(), cs, false)
	alloc := New(0, 1, 1, 1.0)
	require.NoError(t, alloc.SetHost(sim))
	return sim, cs, alloc
}

func TestNewRejectsNonResourceFitCellState(t *testing.T) {
	cs, err := cellstate.New(1, 100, 100, cellstate.SequenceNumbers, cellstate.AllOrNothing)
	require.NoError(t, err)
	sim := simulator.New(simcontext.Background(), cs, false)
	alloc := New(0, 1, 1, 1.0)
	err = alloc.SetHost(sim)
	assert.ErrorIs(t, err, cellstate.ErrInvalidConfig)
}

func TestSingleMesosSchedulerGetsOfferAndCommits(t *testing.T) {
	sim, cs, alloc := newMesosSim(t, 1, 100, 100)

	sched := NewScheduler("m1", nil, nil, 0, alloc)
	sched.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(sched))

	job := workload.New(1, 0, "w", 2, 10, 10, 5, false)
	sim.AfterDelay(0, func() { sched.AddJob(job) })

	status, err := sim.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	assert.Equal(t, uint32(0), job.UnscheduledTasks)
	assert.Equal(t, 100.0, cs.AvailableCpus())
	assert.Equal(t, 100.0, cs.AvailableMem())
}

func TestDRFPicksLowerShareScheduler(t *testing.T) {
	sim, cs, alloc := newMesosSim(t, 1, 100, 100)

	o1 := NewScheduler("o1", nil, nil, 0, alloc)
	o1.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o1))
	o2 := NewScheduler("o2", nil, nil, 0, alloc)
	o2.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o2))

	// Pre-existing occupancy: o1 has the larger dominant share.
	require.NoError(t, cs.AssignResources("o1", 0, 40, 0, false))
	require.NoError(t, cs.AssignResources("o2", 0, 10, 0, false))

	alloc.requesters["o1"] = o1
	alloc.requesters["o2"] = o2
	sorted := alloc.drfSortSchedulers()
	require.Len(t, sorted, 2)
	assert.Equal(t, "o2", sorted[0].Name)
	assert.Equal(t, "o1", sorted[1].Name)
}

func TestMesosSchedulerRequestsAnotherBatchUntilFullyPlaced(t *testing.T) {
	// A single machine can only fit one of the two jobs per batch, so
	// the scheduler must stay in the requester set across two offer
	// rounds before both are fully scheduled.
	sim, cs, alloc := newMesosSim(t, 1, 60, 60)

	sched := NewScheduler("m1", nil, nil, 0, alloc)
	sched.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(sched))

	job1 := workload.New(1, 0, "w", 1, 50, 50, 5, false)
	job2 := workload.New(2, 0, "w", 1, 50, 50, 5, false)
	sim.AfterDelay(0, func() { sched.AddJob(job1) })
	sim.AfterDelay(0, func() { sched.AddJob(job2) })

	status, err := sim.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	assert.Equal(t, uint32(0), job1.UnscheduledTasks)
	assert.Equal(t, uint32(0), job2.UnscheduledTasks)
	assert.Equal(t, 60.0, cs.AvailableCpus())
	assert.Equal(t, 0.0, cs.TotalLockedCpus())
}
