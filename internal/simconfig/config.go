// Package simconfig loads scenario configuration for the cellsim CLI:
// cell geometry, scheduler think-time maps, and a synthetic job
// arrival list, all unmarshaled from YAML/JSON via viper the way
// armada's internal/scheduler/simulator.SchedulingConfigFromPattern
// loads SchedulingConfig (see runner.go in that package). Loading
// workload *traces* is explicitly out of the core's scope (spec.md
// §1); this package's JobSpec list is the CLI's minimal stand-in so a
// scenario file can still describe something runnable end to end.
package simconfig

import (
	"github.com/pkg/errors"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
)

// ErrInvalidScenario is returned by Validate when a scenario file's
// structure is unusable, independent of the numeric validation
// cellstate.New performs at Build time.
var ErrInvalidScenario = errors.New("invalid scenario configuration")

// CellConfig mirrors spec.md §6's recognized CellState options.
type CellConfig struct {
	NumMachines     int
	CpusPerMachine  float64
	MemPerMachine   float64
	ConflictMode    string
	TransactionMode string
}

// SchedulerConfig mirrors spec.md §6's OmegaScheduler options, and is
// reused verbatim for Mesos's per-scheduler think-time configuration
// since both scheduler styles share the same BaseScheduler fields.
type SchedulerConfig struct {
	Name                   string
	ConstantThinkTimes     map[string]float64
	PerTaskThinkTimes      map[string]float64
	NumMachinesToBlackList uint32
}

// MesosConfig mirrors spec.md §6's MesosAllocator options plus the
// list of Mesos-style schedulers that request offers from it.
type MesosConfig struct {
	ConstantThinkTime  float64
	MinCpuOffer        float64
	MinMemOffer        float64
	OfferBatchInterval float64
	Schedulers         []SchedulerConfig
}

// RunConfig mirrors spec.md §6's run arguments.
type RunConfig struct {
	RunTime                 *float64
	WallClockTimeoutSeconds *float64
}

// JobSpec describes one job's arrival: when it is submitted and its
// static shape. Grounded on the id/numTasks/cpusPerTask/memPerTask/
// taskDuration/isRigid fields spec.md §3 assigns to Job.
type JobSpec struct {
	ID            uint64
	SchedulerName string
	Workload      string
	SubmittedAt   float64
	NumTasks      uint32
	CpusPerTask   float64
	MemPerTask    float64
	TaskDuration  float64
	IsRigid       bool
}

// Scenario is one complete, self-contained simulation input: a cell,
// a set of Omega and/or Mesos schedulers, a job arrival list, the
// logging toggle, and run bounds.
type Scenario struct {
	Name    string
	Logging bool

	Cell            CellConfig
	OmegaSchedulers []SchedulerConfig
	Mesos           *MesosConfig
	Jobs            []JobSpec
	Run             RunConfig
}

// Validate checks structural well-formedness: recognized mode
// strings, non-empty scheduler names, and that every job references
// a workload name. It does not duplicate the numeric checks
// cellstate.New already performs (non-positive machine counts, etc) —
// those surface naturally when Build constructs the CellState.
func (s *Scenario) Validate() error {
	switch s.Cell.ConflictMode {
	case "resource-fit", "sequence-numbers":
	default:
		return errors.Wrapf(ErrInvalidScenario, "cell.conflictMode must be resource-fit or sequence-numbers, got %q", s.Cell.ConflictMode)
	}
	switch s.Cell.TransactionMode {
	case "all-or-nothing", "incremental":
	default:
		return errors.Wrapf(ErrInvalidScenario, "cell.transactionMode must be all-or-nothing or incremental, got %q", s.Cell.TransactionMode)
	}
	if s.Mesos != nil && s.Cell.ConflictMode != "resource-fit" {
		return errors.Wrap(ErrInvalidScenario, "mesos allocator requires cell.conflictMode = resource-fit")
	}

	seen := make(map[string]bool)
	for _, sc := range s.OmegaSchedulers {
		if sc.Name == "" {
			return errors.Wrap(ErrInvalidScenario, "omega scheduler with empty name")
		}
		if seen[sc.Name] {
			return errors.Wrapf(ErrInvalidScenario, "duplicate scheduler name %q", sc.Name)
		}
		seen[sc.Name] = true
	}
	if s.Mesos != nil {
		for _, sc := range s.Mesos.Schedulers {
			if sc.Name == "" {
				return errors.Wrap(ErrInvalidScenario, "mesos scheduler with empty name")
			}
			if seen[sc.Name] {
				return errors.Wrapf(ErrInvalidScenario, "duplicate scheduler name %q", sc.Name)
			}
			seen[sc.Name] = true
		}
	}
	for i, j := range s.Jobs {
		if j.Workload == "" {
			return errors.Wrapf(ErrInvalidScenario, "job at index %d has no workload name", i)
		}
		if j.NumTasks == 0 {
			return errors.Wrapf(ErrInvalidScenario, "job at index %d has zero numTasks", i)
		}
		if !seen[j.SchedulerName] {
			return errors.Wrapf(ErrInvalidScenario, "job at index %d references unknown scheduler %q", i, j.SchedulerName)
		}
	}
	return nil
}

func conflictMode(s string) cellstate.ConflictMode {
	if s == "sequence-numbers" {
		return cellstate.SequenceNumbers
	}
	return cellstate.ResourceFit
}

func transactionMode(s string) cellstate.TransactionMode {
	if s == "incremental" {
		return cellstate.Incremental
	}
	return cellstate.AllOrNothing
}
