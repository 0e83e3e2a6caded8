package mesos

import (
	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	baseschd "github.com/KanooooXD/omega-scheduler-simulator/internal/scheduler"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

// Scheduler is a Mesos-style scheduler: it never touches the shared
// ledger directly, instead requesting offers from an Allocator and
// choosing which of an offer's locked resources to keep. Grounded on
// the MesosAllocator/IScheduler collaboration in original_source;
// the scheduler-side half of the protocol isn't present in the
// retrieved sources, so ResourceOffer below is designed from the
// capability contract spec.md §9 calls out
// ({name, resourceOffer(offer), scheduleJob(job, cell),
// scheduleAllAvailable(cell, locked)}).
type Scheduler struct {
	baseschd.Base

	host       simulator.Host
	allocator  *Allocator
	requesting bool
}

// NewScheduler constructs a Mesos scheduler bound to allocator. Call
// SetHost before AddJob.
func NewScheduler(name string, constantThinkTimes, perTaskThinkTimes map[string]float64, numMachinesToBlackList uint32, allocator *Allocator) *Scheduler {
	return &Scheduler{
		Base:      baseschd.NewBase(name, constantThinkTimes, perTaskThinkTimes, numMachinesToBlackList),
		allocator: allocator,
	}
}

// SchedulerName implements simulator.Scheduler.
func (s *Scheduler) SchedulerName() string { return s.Name }

// SetHost wires this scheduler into a running Simulator.
func (s *Scheduler) SetHost(h simulator.Host) {
	s.host = h
	s.host.Log("scheduler-id-info: name=" + s.Name)
}

// AddJob enqueues job and, unless an offer request is already
// outstanding, asks the allocator for one.
func (s *Scheduler) AddJob(job *workload.Job) {
	s.Enqueue(job, s.host.CurrentTime())
	s.host.Log("scheduler " + s.Name + " enqueued job, requesting an offer")
	if !s.requesting {
		s.requesting = true
		s.allocator.RequestOffer(s)
	}
}

// jobPlacement pairs a job with how many of its tasks a placement
// pass found room for.
type jobPlacement struct {
	job     *workload.Job
	tasks   uint32
	deltas  []*cellstate.ClaimDelta
}

// scheduleAllAvailable runs first-fit placement for every job
// currently queued, in FIFO order, against cellState — applying each
// delta immediately (with the given locked flag) so later jobs in the
// same call see reduced availability. It does not mutate the queue or
// any job's UnscheduledTasks; the caller decides what to keep.
func (s *Scheduler) scheduleAllAvailable(cellState *cellstate.CellState, locked bool) ([]jobPlacement, error) {
	placements := make([]jobPlacement, 0, len(s.PendingQueue))
	for _, job := range s.PendingQueue {
		deltas, err := s.ScheduleJob(job, cellState, locked)
		if err != nil {
			return nil, err
		}
		if len(deltas) == 0 {
			continue
		}
		var tasks uint32
		for _, d := range deltas {
			tasks += uint32(d.Cpus / job.CpusPerTask)
		}
		placements = append(placements, jobPlacement{job: job, tasks: tasks, deltas: deltas})
	}
	return placements, nil
}

// ScheduleAllAvailable is the allocator-facing half of the capability
// contract: it returns the flat delta list only, for the Build step,
// which locks them directly against the shared ledger.
func (s *Scheduler) ScheduleAllAvailable(cellState *cellstate.CellState, locked bool) ([]*cellstate.ClaimDelta, error) {
	placements, err := s.scheduleAllAvailable(cellState, locked)
	if err != nil {
		return nil, err
	}
	var all []*cellstate.ClaimDelta
	for _, p := range placements {
		all = append(all, p.deltas...)
	}
	return all, nil
}

// ResourceOffer is the allocator's callback delivering offer. The
// scheduler re-derives its own placement against the offer's
// (pre-lock) snapshot, keeps whatever fits, decrements UnscheduledTasks
// for the jobs it place tasks on, drops fully-scheduled jobs from the
// queue, and responds to the allocator with the chosen deltas.
func (s *Scheduler) ResourceOffer(offer *Offer) {
	placements, err := s.scheduleAllAvailable(offer.CellState, false)
	if err != nil {
		simulator.Fail(err)
	}

	var chosen []*cellstate.ClaimDelta
	var stillPending []*workload.Job
	placedByJob := make(map[uint64]uint32, len(placements))
	for _, p := range placements {
		chosen = append(chosen, p.deltas...)
		placedByJob[p.job.ID] = p.tasks
	}

	for _, job := range s.PendingQueue {
		if k := placedByJob[job.ID]; k > 0 {
			job.UnscheduledTasks -= k
			s.NumSuccessfulTaskTransactions += uint64(k)
			s.NumSuccessfulTransactions++
		}
		if job.UnscheduledTasks > 0 {
			stillPending = append(stillPending, job)
		}
	}
	s.PendingQueue = stillPending

	if err := s.allocator.RespondToOffer(offer, chosen); err != nil {
		simulator.Fail(err)
	}

	if len(s.PendingQueue) == 0 {
		s.requesting = false
		s.allocator.CancelOfferRequest(s)
	} else {
		s.allocator.RequestOffer(s)
	}
}
