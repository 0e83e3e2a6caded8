package simconfig

import (
	"github.com/pkg/errors"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/mesos"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/omega"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/workload"
)

// jobReceiver is the subset of omega.Scheduler / mesos.Scheduler Build
// needs to inject a job's arrival; both satisfy it identically.
type jobReceiver interface {
	AddJob(job *workload.Job)
}

// Built is the fully wired runtime for one Scenario: the Simulator,
// its CellState, and every scheduler/allocator handle a driver needs
// to read final statistics from once Run returns.
type Built struct {
	Scenario *Scenario
	Sim      *simulator.Simulator
	Cell     *cellstate.CellState

	OmegaSchedulers map[string]*omega.Scheduler
	MesosAllocator  *mesos.Allocator
	MesosSchedulers map[string]*mesos.Scheduler

	Jobs []*workload.Job
}

// Build validates s and constructs a complete, ready-to-run Simulator:
// the CellState, every configured Omega and Mesos scheduler registered
// with it, and a job-arrival event scheduled for each entry in
// s.Jobs at simulator.AfterDelay(job.SubmittedAt - 0, ...) (spec.md
// §6's inbound API).
func Build(ctx *simcontext.Context, s *Scenario) (*Built, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cell, err := cellstate.New(
		s.Cell.NumMachines, s.Cell.CpusPerMachine, s.Cell.MemPerMachine,
		conflictMode(s.Cell.ConflictMode), transactionMode(s.Cell.TransactionMode),
	)
	if err != nil {
		return nil, err
	}

	sim := simulator.New(ctx, cell, s.Logging)
	built := &Built{
		Scenario:        s,
		Sim:             sim,
		Cell:            cell,
		OmegaSchedulers: make(map[string]*omega.Scheduler),
		MesosSchedulers: make(map[string]*mesos.Scheduler),
	}

	receivers := make(map[string]jobReceiver)

	for _, sc := range s.OmegaSchedulers {
		o := omega.New(sc.Name, sc.ConstantThinkTimes, sc.PerTaskThinkTimes, sc.NumMachinesToBlackList)
		o.SetHost(sim)
		if err := sim.RegisterScheduler(o); err != nil {
			return nil, err
		}
		built.OmegaSchedulers[sc.Name] = o
		receivers[sc.Name] = o
	}

	if s.Mesos != nil {
		alloc := mesos.New(s.Mesos.ConstantThinkTime, s.Mesos.MinCpuOffer, s.Mesos.MinMemOffer, s.Mesos.OfferBatchInterval)
		if err := alloc.SetHost(sim); err != nil {
			return nil, err
		}
		built.MesosAllocator = alloc

		for _, sc := range s.Mesos.Schedulers {
			m := mesos.NewScheduler(sc.Name, sc.ConstantThinkTimes, sc.PerTaskThinkTimes, sc.NumMachinesToBlackList, alloc)
			m.SetHost(sim)
			if err := sim.RegisterScheduler(m); err != nil {
				return nil, err
			}
			built.MesosSchedulers[sc.Name] = m
			receivers[sc.Name] = m
		}
	}

	for _, js := range s.Jobs {
		js := js
		receiver, ok := receivers[js.SchedulerName]
		if !ok {
			return nil, errors.Errorf("job references unknown scheduler %q", js.SchedulerName)
		}
		job := workload.New(js.ID, js.SubmittedAt, js.Workload, js.NumTasks, js.CpusPerTask, js.MemPerTask, js.TaskDuration, js.IsRigid)
		built.Jobs = append(built.Jobs, job)
		sim.AfterDelay(js.SubmittedAt, func() {
			receiver.AddJob(job)
		})
	}

	return built, nil
}
