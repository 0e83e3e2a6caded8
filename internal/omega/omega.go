// Package omega implements the Omega scheduling style: each scheduler
// works off a private snapshot of the shared CellState, thinks for a
// simulated duration, then submits its proposed claims as a single
// optimistic commit against the shared ledger (spec.md §4.4).
// Grounded on scheduler.OmegaScheduler in original_source.
package omega

import (
	"math"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	baseschd "github.com/KanooooXD/omega-scheduler-simulator/internal/scheduler"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

// abandonAfterAttemptsFullyUnscheduled and abandonAfterAttempts
// implement spec.md §4.4's abandonment rule: give up once a job has
// seen more than 100 attempts with zero progress, or more than 1000
// attempts regardless.
const (
	abandonAfterAttemptsFullyUnscheduled = 100
	abandonAfterAttempts                 = 1000
	retryDelay                           = 1.0
)

// Scheduler is an Omega-style scheduler: optimistic concurrency over a
// private CellState snapshot.
type Scheduler struct {
	baseschd.Base

	host      simulator.Host
	private   *cellstate.CellState
	dailySuccess map[int]int
	dailyFailed  map[int]int
}

// New constructs an Omega scheduler. Call SetHost before AddJob.
func New(name string, constantThinkTimes, perTaskThinkTimes map[string]float64, numMachinesToBlackList uint32) *Scheduler {
	return &Scheduler{
		Base:         baseschd.NewBase(name, constantThinkTimes, perTaskThinkTimes, numMachinesToBlackList),
		dailySuccess: make(map[int]int),
		dailyFailed:  make(map[int]int),
	}
}

// SchedulerName implements simulator.Scheduler.
func (s *Scheduler) SchedulerName() string { return s.Name }

// SetHost wires this scheduler into a running Simulator. Must be
// called exactly once, before the first AddJob.
func (s *Scheduler) SetHost(h simulator.Host) {
	s.host = h
	s.host.Log("scheduler-id-info: name=" + s.Name)
}

// PrivateCellState returns the scheduler's most recent private
// snapshot, taken the last time it began handling a job.
func (s *Scheduler) PrivateCellState() *cellstate.CellState { return s.private }

// DailySuccessCounts returns the per-day (⌊t/86400⌋) count of fully
// successful commit attempts.
func (s *Scheduler) DailySuccessCounts() map[int]int { return s.dailySuccess }

// DailyFailedCounts returns the per-day count of commit attempts that
// saw at least one conflict.
func (s *Scheduler) DailyFailedCounts() map[int]int { return s.dailyFailed }

// AddJob enqueues job. If the scheduler is currently idle, this begins
// a new scheduling cycle immediately (at the current virtual time).
func (s *Scheduler) AddJob(job *workload.Job) {
	if job.UnscheduledTasks == 0 {
		simulator.Fail(errNoUnscheduledTasks(job.ID))
	}
	s.Enqueue(job, s.host.CurrentTime())
	s.host.Log("scheduler " + s.Name + " enqueued job")

	if !s.Scheduling {
		s.Scheduling = true
		s.handleJob(s.Dequeue())
	}
}

func (s *Scheduler) handleJob(job *workload.Job) {
	job.UpdateTimeInQueueStats(s.host.CurrentTime())
	s.syncCellState()
	thinkTime := s.GetThinkTime(job)

	s.host.AfterDelay(thinkTime, func() {
		s.onThinkComplete(job, thinkTime)
	})
}

func (s *Scheduler) onThinkComplete(job *workload.Job, thinkTime float64) {
	job.NumSchedulingAttempts++
	job.NumTaskSchedulingAttempts += uint64(job.UnscheduledTasks)

	deltas, err := s.ScheduleJob(job, s.private, false)
	if err != nil {
		simulator.Fail(err)
	}

	if len(deltas) > 0 {
		result, err := s.host.CellState().Commit(nil, deltas, true, s.host.AfterDelay)
		if err != nil {
			simulator.Fail(err)
		}

		committedTasks := tasksIn(result.Committed, job.CpusPerTask)
		conflictedTasks := tasksIn(result.Conflicted, job.CpusPerTask)
		job.UnscheduledTasks -= committedTasks
		s.NumSuccessfulTaskTransactions += uint64(committedTasks)
		s.NumFailedTaskTransactions += uint64(conflictedTasks)

		if job.NumSchedulingAttempts > 1 {
			s.NumRetriedTransactions++
		}

		day := int(math.Floor(s.host.CurrentTime() / 86400.0))
		if len(result.Conflicted) == 0 {
			s.NumSuccessfulTransactions++
			s.dailySuccess[day]++
			s.RecordUsefulTimeScheduling(job, thinkTime, job.NumSchedulingAttempts == 1)
		} else {
			s.NumFailedTransactions++
			s.dailyFailed[day]++
			s.RecordWastedTimeScheduling(job, thinkTime, job.NumSchedulingAttempts == 1)
		}
	} else {
		s.NumNoResourcesFoundSchedulingAttempts++
	}

	if job.UnscheduledTasks > 0 {
		if (job.NumSchedulingAttempts > abandonAfterAttemptsFullyUnscheduled && job.UnscheduledTasks == job.NumTasks) ||
			job.NumSchedulingAttempts > abandonAfterAttempts {
			s.NumJobsTimedOutScheduling++
			s.host.Log("abandoning job after too many scheduling attempts")
		} else {
			s.host.AfterDelay(retryDelay, func() {
				s.AddJob(job)
			})
		}
	}

	s.Scheduling = false
	if len(s.PendingQueue) > 0 {
		s.Scheduling = true
		s.handleJob(s.Dequeue())
	}
}

// tasksIn sums how many tasks a list of claim deltas represents, given
// the per-task cpu size they were all built from. A single delta can
// cover several tasks placed on one machine in one ScheduleJob call,
// so task-level counters must sum this rather than count deltas.
func tasksIn(deltas []*cellstate.ClaimDelta, cpusPerTask float64) uint32 {
	var total uint32
	for _, d := range deltas {
		total += uint32(math.Round(d.Cpus / cpusPerTask))
	}
	return total
}

// syncCellState takes a fresh private snapshot of the shared ledger —
// the "sync point" spec.md §4.4 calls out, after which the private
// view drifts from shared state until the think-time callback fires.
func (s *Scheduler) syncCellState() {
	s.private = s.host.CellState().Copy()
	s.host.Log(s.Name + " synced private cellstate")
}
