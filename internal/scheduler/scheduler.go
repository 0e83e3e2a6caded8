// Package scheduler implements BaseScheduler: the job queue, think-time
// model, and first-fit placement algorithm shared by both the Omega
// and Mesos scheduler styles (spec.md §4.3). OmegaScheduler and Mesos's
// scheduler type embed Base and add their own commit protocol around
// it, mirroring how simulator.core's IScheduler implementations in
// original_source share placement logic.
package scheduler

import (
	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

// Base holds the queue, think-time configuration, and placement
// counters common to every scheduler implementation.
type Base struct {
	Name                   string
	ConstantThinkTime      map[string]float64
	PerTaskThinkTime       map[string]float64
	NumMachinesToBlackList uint32

	PendingQueue []*workload.Job
	Scheduling   bool

	NumSuccessfulTransactions             uint64
	NumFailedTransactions                 uint64
	NumSuccessfulTaskTransactions          uint64
	NumFailedTaskTransactions              uint64
	NumRetriedTransactions                 uint64
	NumNoResourcesFoundSchedulingAttempts  uint64
	NumJobsTimedOutScheduling              uint64
}

// NewBase constructs a Base scheduler. Nil think-time maps are
// replaced with empty maps so GetThinkTime can look up unconditionally.
func NewBase(name string, constantThinkTime, perTaskThinkTime map[string]float64, numMachinesToBlackList uint32) Base {
	if constantThinkTime == nil {
		constantThinkTime = map[string]float64{}
	}
	if perTaskThinkTime == nil {
		perTaskThinkTime = map[string]float64{}
	}
	return Base{
		Name:                   name,
		ConstantThinkTime:      constantThinkTime,
		PerTaskThinkTime:       perTaskThinkTime,
		NumMachinesToBlackList: numMachinesToBlackList,
	}
}

// GetThinkTime returns the simulated scheduling latency for job:
// constant[workload] + perTask[workload] * unscheduledTasks. Missing
// map entries default to 0.
func (b *Base) GetThinkTime(job *workload.Job) float64 {
	return b.ConstantThinkTime[job.WorkloadName] + b.PerTaskThinkTime[job.WorkloadName]*float64(job.UnscheduledTasks)
}

// Enqueue appends job to the pending FIFO queue and records its
// enqueue time.
func (b *Base) Enqueue(job *workload.Job, now float64) {
	job.LastEnqueued = now
	b.PendingQueue = append(b.PendingQueue, job)
}

// Dequeue pops the head of the pending FIFO queue. Callers must check
// len(b.PendingQueue) > 0 first.
func (b *Base) Dequeue() *workload.Job {
	job := b.PendingQueue[0]
	b.PendingQueue = b.PendingQueue[1:]
	return job
}

// ScheduleJob runs first-fit placement for job against cellState,
// considering machines [0, numMachines - numMachinesToBlackList).
// Each machine that can fit at least one task gets its own ClaimDelta,
// applied immediately to cellState (with the given locked flag) so
// later machines in the same call see reduced availability. Returns
// the (possibly empty) delta list; it does not commit anything
// against a shared ledger — that's the caller's (Omega/Mesos) job.
func (b *Base) ScheduleJob(job *workload.Job, cellState *cellstate.CellState, locked bool) ([]*cellstate.ClaimDelta, error) {
	var deltas []*cellstate.ClaimDelta
	var plannedSoFar uint32

	numMachines := cellState.NumMachines() - int(b.NumMachinesToBlackList)
	for m := 0; m < numMachines; m++ {
		if plannedSoFar >= job.UnscheduledTasks {
			break
		}
		availCpus, err := cellState.AvailableCpusOn(m)
		if err != nil {
			return nil, err
		}
		availMem, err := cellState.AvailableMemOn(m)
		if err != nil {
			return nil, err
		}

		k := job.NumTasksToSchedule(availCpus, availMem)
		if k > job.UnscheduledTasks-plannedSoFar {
			k = job.UnscheduledTasks - plannedSoFar
		}
		if k == 0 {
			continue
		}

		seqNum, err := cellState.MachineSeqNum(m)
		if err != nil {
			return nil, err
		}
		d := cellstate.NewClaimDelta(b.Name, m, seqNum, job.TaskDuration, float64(k)*job.CpusPerTask, float64(k)*job.MemPerTask)
		if err := d.Apply(cellState, locked); err != nil {
			return nil, err
		}
		deltas = append(deltas, d)
		plannedSoFar += k
	}
	return deltas, nil
}

// RecordUsefulTimeScheduling attributes think time spent on an attempt
// in which no delta conflicted to the job's useful-time bucket. The
// scheduler keeps no useful-time total of its own.
func (b *Base) RecordUsefulTimeScheduling(job *workload.Job, think float64, isFirstAttempt bool) {
	job.UsefulTimeScheduling += think
}

// RecordWastedTimeScheduling attributes think time spent on an attempt
// where any committed delta conflicted to the job's wasted-time
// bucket; the scheduler keeps no wasted-time total of its own. Per
// spec.md §9's pinned semantic, the
// entire think time is charged as wasted even when the attempt was
// only partially successful — mirroring the original's
// all-or-nothing-looking accounting of an attempt that saw any
// conflict.
func (b *Base) RecordWastedTimeScheduling(job *workload.Job, think float64, isFirstAttempt bool) {
	job.WastedTimeScheduling += think
}
