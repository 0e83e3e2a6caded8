package omega

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

func newSim(t *testing.T, conflictMode cellstate.ConflictMode) (*simulator.Simulator, *cellstate.CellState) {
	t.Helper()
	cs, err := cellstate.New(1, 100, 100, conflictMode, cellstate.AllOrNothing)
	require.NoError(t, err)
	sim := simulator.New(simcontext.Background(), cs, false)
	return sim, cs
}

func TestSingleOmegaJobFits(t *testing.T) {
	sim, cs := newSim(t, cellstate.SequenceNumbers)

	o1 := New("o1", nil, nil, 0)
	o1.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o1))

	job := workload.New(1, 0, "w", 2, 10, 10, 5, false)
	sim.AfterDelay(0, func() { o1.AddJob(job) })

	status, err := sim.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	assert.Equal(t, uint32(0), job.UnscheduledTasks)
	assert.Equal(t, uint64(1), o1.NumSuccessfulTransactions)
	seq, _ := cs.MachineSeqNum(0)
	assert.Equal(t, uint32(1), seq)
	assert.Equal(t, 100.0, cs.AvailableCpus())
	assert.Equal(t, 100.0, cs.AvailableMem())
}

func TestOmegaSchedulersConflictOnStaleSeqNum(t *testing.T) {
	sim, cs := newSim(t, cellstate.SequenceNumbers)

	o1 := New("o1", nil, nil, 0)
	o1.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o1))
	o2 := New("o2", nil, nil, 0)
	o2.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o2))

	job1 := workload.New(1, 0, "w", 5, 10, 10, 5, false)
	job2 := workload.New(2, 0, "w", 5, 10, 10, 5, false)

	// Both schedulers sync their private snapshot at t=0 (both see
	// seqNum 0 on machine 0) before either one's zero-length think
	// completes and submits.
	sim.AfterDelay(0, func() { o1.AddJob(job1) })
	sim.AfterDelay(0, func() { o2.AddJob(job2) })

	status, err := sim.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	// One of the two committed, the other observed a stale seqNum and
	// lost every attempt until it eventually succeeds on retry.
	assert.Equal(t, uint32(0), job1.UnscheduledTasks)
	assert.Equal(t, uint32(0), job2.UnscheduledTasks)
	assert.True(t, o1.NumFailedTransactions > 0 || o2.NumFailedTransactions > 0)

	_ = cs
}

func TestOmegaCommitDecrementsByTaskCountNotDeltaCount(t *testing.T) {
	// A single ClaimDelta can place several tasks on one machine; the
	// job's unscheduledTasks must drop by that task count, not by the
	// number of deltas (there's only one delta here for 4 tasks).
	sim, cs := newSim(t, cellstate.SequenceNumbers)

	o1 := New("o1", nil, nil, 0)
	o1.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o1))

	job := workload.New(1, 0, "w", 4, 10, 10, 5, false)
	sim.AfterDelay(0, func() { o1.AddJob(job) })

	status, err := sim.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	assert.Equal(t, uint32(0), job.UnscheduledTasks)
	assert.Equal(t, uint64(1), o1.NumSuccessfulTransactions)
	assert.Equal(t, uint64(0), o1.NumFailedTransactions)
	_ = cs
}

func TestOmegaJobIsAbandonedWhenItNeverFits(t *testing.T) {
	sim, _ := newSim(t, cellstate.SequenceNumbers)

	o1 := New("o1", nil, nil, 0)
	o1.SetHost(sim)
	require.NoError(t, sim.RegisterScheduler(o1))

	// Job needs far more cpu per task than the whole machine has, so
	// it can never be placed.
	job := workload.New(1, 0, "w", 1, 1000, 10, 5, false)
	sim.AfterDelay(0, func() { o1.AddJob(job) })

	status, err := sim.Run(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, simulator.Completed, status)

	assert.Equal(t, uint64(1), o1.NumJobsTimedOutScheduling)
	assert.Equal(t, uint32(1), job.UnscheduledTasks)
}
