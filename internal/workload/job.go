// Package workload holds the data-only Job and Workload containers
// (spec.md §3). They carry scheduling state but no behavior beyond
// small derived-quantity helpers; everything that decides placement
// lives in internal/scheduler, internal/omega, and internal/mesos.
package workload

import "math"

// Job is an immutable identity plus mutable scheduling counters.
// Grounded on simulator.core.Job in original_source.
type Job struct {
	ID           uint64
	SubmittedAt  float64
	WorkloadName string
	NumTasks     uint32
	CpusPerTask  float64
	MemPerTask   float64
	IsRigid      bool

	TaskDuration      float64
	UnscheduledTasks  uint32

	TimeInQueueTillFirstScheduled float64
	TimeInQueueTillFullyScheduled float64
	LastEnqueued                  float64
	LastSchedulingStartTime       float64
	NumSchedulingAttempts          uint64
	NumTaskSchedulingAttempts      uint64
	UsefulTimeScheduling           float64
	WastedTimeScheduling           float64
}

// New constructs a Job with UnscheduledTasks initialized to numTasks.
func New(id uint64, submittedAt float64, workloadName string, numTasks uint32, cpusPerTask, memPerTask, taskDuration float64, isRigid bool) *Job {
	return &Job{
		ID:               id,
		SubmittedAt:      submittedAt,
		WorkloadName:     workloadName,
		NumTasks:         numTasks,
		CpusPerTask:      cpusPerTask,
		MemPerTask:       memPerTask,
		TaskDuration:     taskDuration,
		IsRigid:          isRigid,
		UnscheduledTasks: numTasks,
	}
}

// CpusStillNeeded is the total cpu the job's remaining unscheduled
// tasks would need if placed all at once.
func (j *Job) CpusStillNeeded() float64 {
	return j.CpusPerTask * float64(j.UnscheduledTasks)
}

// MemStillNeeded is the memory analogue of CpusStillNeeded.
func (j *Job) MemStillNeeded() float64 {
	return j.MemPerTask * float64(j.UnscheduledTasks)
}

// NumTasksToSchedule returns how many of the job's remaining tasks fit
// into the given available cpu/mem, each first floor-rounded down to a
// whole multiple of the per-task size. Returns 0 if either available
// quantity is exactly 0.
func (j *Job) NumTasksToSchedule(cpusAvail, memAvail float64) uint32 {
	if cpusAvail == 0 || memAvail == 0 {
		return 0
	}
	cpusChopped := cpusAvail - math.Mod(cpusAvail, j.CpusPerTask)
	memChopped := memAvail - math.Mod(memAvail, j.MemPerTask)
	maxByCpu := uint32(math.Round(cpusChopped / j.CpusPerTask))
	maxByMem := uint32(math.Round(memChopped / j.MemPerTask))
	maxFit := maxByCpu
	if maxByMem < maxFit {
		maxFit = maxByMem
	}
	if j.UnscheduledTasks < maxFit {
		return j.UnscheduledTasks
	}
	return maxFit
}

// UpdateTimeInQueueStats accumulates queue-wait stats ahead of a new
// scheduling attempt at currentTime. It must be called once per
// attempt, before the attempt's think time elapses.
func (j *Job) UpdateTimeInQueueStats(currentTime float64) {
	j.TimeInQueueTillFullyScheduled += currentTime - j.LastEnqueued
	if j.NumSchedulingAttempts == 0 {
		j.TimeInQueueTillFirstScheduled += currentTime - j.LastEnqueued
	}
}

// Copy returns a deep copy of j (Jobs hold no reference types besides
// the plain string workload name, so this is a value copy).
func (j *Job) Copy() *Job {
	cp := *j
	return &cp
}
