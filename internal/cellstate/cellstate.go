// Package cellstate implements the shared resource ledger at the heart
// of the simulator: per-machine and per-scheduler CPU/memory
// accounting, with a transactional commit protocol that can detect
// conflicts either by resource availability (Mesos) or by machine
// sequence number (Omega). Grounded on simulator.core.CellState in
// original_source, restructured to avoid the back-pointer to the
// owning simulator that the Java original carries (see spec.md §9):
// Commit takes the scheduling primitive it needs as an explicit
// parameter instead of reaching through a stored reference.
package cellstate

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
)

// ConflictMode selects how Commit decides whether a delta conflicts.
type ConflictMode int

const (
	// SequenceNumbers implements Omega-style optimistic concurrency:
	// a delta conflicts if the machine's sequence number has moved
	// since the delta was built.
	SequenceNumbers ConflictMode = iota
	// ResourceFit implements Mesos-style pessimistic locking: a delta
	// conflicts only if the machine genuinely lacks capacity.
	ResourceFit
)

// TransactionMode selects Commit's all-or-nothing vs incremental
// semantics.
type TransactionMode int

const (
	// AllOrNothing rolls back every already-applied delta in a batch
	// as soon as one delta conflicts.
	AllOrNothing TransactionMode = iota
	// Incremental commits every non-conflicting delta and reports the
	// rest as conflicted, without rolling back.
	Incremental
)

// CellState is the shared ledger of a fixed set of homogeneous
// machines ("a cell"). It is the only mutable structure shared across
// schedulers; the simulator's cooperative single-threaded event loop
// (see internal/simulator) is what makes concurrent access to it safe
// without locks.
type CellState struct {
	numMachines     int
	cpusPerMachine  float64
	memPerMachine   float64
	conflictMode    ConflictMode
	transactionMode TransactionMode

	allocatedCpus []float64
	allocatedMem  []float64
	machineSeqNum []uint32

	occupiedCpus map[string]float64
	occupiedMem  map[string]float64
	lockedCpus   map[string]float64
	lockedMem    map[string]float64

	totalOccupiedCpus float64
	totalOccupiedMem  float64
	totalLockedCpus   float64
	totalLockedMem    float64
}

// New constructs a CellState with numMachines identical machines, each
// with the given cpu/mem capacity. Returns ErrInvalidConfig if
// numMachines/cpusPerMachine/memPerMachine are non-positive.
func New(numMachines int, cpusPerMachine, memPerMachine float64, conflictMode ConflictMode, transactionMode TransactionMode) (*CellState, error) {
	if numMachines <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "numMachines must be > 0")
	}
	if cpusPerMachine <= 0 || memPerMachine <= 0 {
		return nil, errors.Wrap(ErrInvalidConfig, "cpusPerMachine and memPerMachine must be > 0")
	}
	return &CellState{
		numMachines:     numMachines,
		cpusPerMachine:  cpusPerMachine,
		memPerMachine:   memPerMachine,
		conflictMode:    conflictMode,
		transactionMode: transactionMode,
		allocatedCpus:   make([]float64, numMachines),
		allocatedMem:    make([]float64, numMachines),
		machineSeqNum:   make([]uint32, numMachines),
		occupiedCpus:    make(map[string]float64),
		occupiedMem:     make(map[string]float64),
		lockedCpus:      make(map[string]float64),
		lockedMem:       make(map[string]float64),
	}, nil
}

func (cs *CellState) NumMachines() int           { return cs.numMachines }
func (cs *CellState) CpusPerMachine() float64    { return cs.cpusPerMachine }
func (cs *CellState) MemPerMachine() float64     { return cs.memPerMachine }
func (cs *CellState) ConflictMode() ConflictMode { return cs.conflictMode }
func (cs *CellState) TransactionMode() TransactionMode { return cs.transactionMode }

func (cs *CellState) TotalCpus() float64 { return float64(cs.numMachines) * cs.cpusPerMachine }
func (cs *CellState) TotalMem() float64  { return float64(cs.numMachines) * cs.memPerMachine }

func (cs *CellState) TotalOccupiedCpus() float64 { return cs.totalOccupiedCpus }
func (cs *CellState) TotalOccupiedMem() float64  { return cs.totalOccupiedMem }
func (cs *CellState) TotalLockedCpus() float64   { return cs.totalLockedCpus }
func (cs *CellState) TotalLockedMem() float64    { return cs.totalLockedMem }

func (cs *CellState) AvailableCpus() float64 {
	return cs.TotalCpus() - (cs.totalOccupiedCpus + cs.totalLockedCpus)
}

func (cs *CellState) AvailableMem() float64 {
	return cs.TotalMem() - (cs.totalOccupiedMem + cs.totalLockedMem)
}

// OccupiedCpus returns the scheduler-name-keyed occupied cpu map.
// Callers must not mutate the returned map.
func (cs *CellState) OccupiedCpus() map[string]float64 { return cs.occupiedCpus }

// OccupiedMem returns the scheduler-name-keyed occupied mem map.
// Callers must not mutate the returned map.
func (cs *CellState) OccupiedMem() map[string]float64 { return cs.occupiedMem }

// MachineSeqNum returns the current sequence number of machineID.
func (cs *CellState) MachineSeqNum(machineID int) (uint32, error) {
	if machineID < 0 || machineID >= cs.numMachines {
		return 0, errors.Wrapf(ErrNoSuchMachine, "machine %d", machineID)
	}
	return cs.machineSeqNum[machineID], nil
}

func (cs *CellState) incrementMachineSeqNum(machineID int) {
	cs.machineSeqNum[machineID]++
}

// AvailableCpusOn returns the unallocated cpu capacity of machineID.
func (cs *CellState) AvailableCpusOn(machineID int) (float64, error) {
	if machineID < 0 || machineID >= cs.numMachines {
		return 0, errors.Wrapf(ErrNoSuchMachine, "machine %d", machineID)
	}
	return cs.cpusPerMachine - cs.allocatedCpus[machineID], nil
}

// AvailableMemOn returns the unallocated mem capacity of machineID.
func (cs *CellState) AvailableMemOn(machineID int) (float64, error) {
	if machineID < 0 || machineID >= cs.numMachines {
		return 0, errors.Wrapf(ErrNoSuchMachine, "machine %d", machineID)
	}
	return cs.memPerMachine - cs.allocatedMem[machineID], nil
}

// AssignResources grants cpus/mem on machineID to schedulerName,
// recorded as locked (held for an in-flight Mesos offer) or occupied
// (backing a running task). The capacity check happens before any
// mutation, so a failed assign leaves the ledger untouched — this is
// the "validate before any mutation" resolution of spec.md §9's open
// question about the original's inconsistent error path.
func (cs *CellState) AssignResources(schedulerName string, machineID int, cpus, mem float64, locked bool) error {
	if machineID < 0 || machineID >= cs.numMachines {
		return errors.Wrapf(ErrNoSuchMachine, "machine %d", machineID)
	}
	if cs.allocatedCpus[machineID]+cpus > cs.cpusPerMachine {
		return errors.Wrapf(ErrOvercommit, "scheduler %s tried to claim %f cpus on machine %d, but only %f are available",
			schedulerName, cpus, machineID, cs.cpusPerMachine-cs.allocatedCpus[machineID])
	}
	if cs.allocatedMem[machineID]+mem > cs.memPerMachine {
		return errors.Wrapf(ErrOvercommit, "scheduler %s tried to claim %f mem on machine %d, but only %f are available",
			schedulerName, mem, machineID, cs.memPerMachine-cs.allocatedMem[machineID])
	}

	if locked {
		cs.lockedCpus[schedulerName] += cpus
		cs.lockedMem[schedulerName] += mem
		cs.totalLockedCpus += cpus
		cs.totalLockedMem += mem
	} else {
		cs.occupiedCpus[schedulerName] += cpus
		cs.occupiedMem[schedulerName] += mem
		cs.totalOccupiedCpus += cpus
		cs.totalOccupiedMem += mem
	}
	cs.allocatedCpus[machineID] += cpus
	cs.allocatedMem[machineID] += mem
	return nil
}

// FreeResources releases cpus/mem previously assigned to schedulerName
// on machineID. Returns ErrNotHolding if the scheduler has no entry in
// the relevant map, or ErrUnderfree if it is freeing more than it
// holds (within a small floating-point tolerance).
func (cs *CellState) FreeResources(schedulerName string, machineID int, cpus, mem float64, locked bool) error {
	if machineID < 0 || machineID >= cs.numMachines {
		return errors.Wrapf(ErrNoSuchMachine, "machine %d", machineID)
	}

	cpuMap, memMap := cs.occupiedCpus, cs.occupiedMem
	if locked {
		cpuMap, memMap = cs.lockedCpus, cs.lockedMem
	}

	currentCpus, ok := cpuMap[schedulerName]
	if !ok {
		return errors.Wrapf(ErrNotHolding, "scheduler %s holds no resources", schedulerName)
	}
	currentMem := memMap[schedulerName]
	if currentCpus < cpus-underfreeTolerance || currentMem < mem-underfreeTolerance {
		return errors.Wrapf(ErrUnderfree, "scheduler %s tried to free %f cpus, %f mem, but was only holding %f cpus, %f mem",
			schedulerName, cpus, mem, currentCpus, currentMem)
	}

	cpuMap[schedulerName] = currentCpus - cpus
	memMap[schedulerName] = currentMem - mem
	if locked {
		cs.totalLockedCpus -= cpus
		cs.totalLockedMem -= mem
	} else {
		cs.totalOccupiedCpus -= cpus
		cs.totalOccupiedMem -= mem
	}
	cs.allocatedCpus[machineID] -= cpus
	cs.allocatedMem[machineID] -= mem
	return nil
}

// Copy returns a deep copy of cs: independent arrays and maps, safe
// for a scheduler to mutate without affecting the original (used by
// OmegaScheduler to take a private snapshot, and by MesosAllocator to
// build an Offer's snapshot).
func (cs *CellState) Copy() *CellState {
	out := &CellState{
		numMachines:     cs.numMachines,
		cpusPerMachine:  cs.cpusPerMachine,
		memPerMachine:   cs.memPerMachine,
		conflictMode:    cs.conflictMode,
		transactionMode: cs.transactionMode,
		allocatedCpus:   append([]float64(nil), cs.allocatedCpus...),
		allocatedMem:    append([]float64(nil), cs.allocatedMem...),
		machineSeqNum:   append([]uint32(nil), cs.machineSeqNum...),
		occupiedCpus:    maps.Clone(cs.occupiedCpus),
		occupiedMem:     maps.Clone(cs.occupiedMem),
		lockedCpus:      maps.Clone(cs.lockedCpus),
		lockedMem:       maps.Clone(cs.lockedMem),
		totalOccupiedCpus: cs.totalOccupiedCpus,
		totalOccupiedMem:  cs.totalOccupiedMem,
		totalLockedCpus:   cs.totalLockedCpus,
		totalLockedMem:    cs.totalLockedMem,
	}
	return out
}

// CommitResult reports the outcome of a Commit call.
type CommitResult struct {
	Committed  []*ClaimDelta
	Conflicted []*ClaimDelta
}

// AfterDelayFunc schedules action to run delay units of virtual time
// from now. Commit takes this as a parameter rather than holding a
// reference to the simulator, so CellState has no back-pointer into
// the object graph that owns it (see spec.md §9).
type AfterDelayFunc func(delay float64, action func())

// Commit attempts to apply deltas in order, evaluating causesConflict
// for each. Behavior depends on transactionMode:
//
//   - AllOrNothing: the first conflict rolls back every delta already
//     applied in this call (resources and sequence numbers); Committed
//     is empty, every delta of the batch is reported in Conflicted, and
//     the ledger's observable state is unchanged from before the call.
//   - Incremental: every non-conflicting delta commits; conflicting
//     ones are skipped and reported, with no rollback.
//
// If scheduleEndEvent is true, afterDelay is used to enqueue, for each
// committed delta, an unapply at now+delta.Duration — modeling the
// task's completion freeing its resources.
func (cs *CellState) Commit(ctx *simcontext.Context, deltas []*ClaimDelta, scheduleEndEvent bool, afterDelay AfterDelayFunc) (CommitResult, error) {
	var applied, conflicted []*ClaimDelta
	rollback := false

	for i, d := range deltas {
		conflict, err := cs.causesConflict(ctx, d)
		if err != nil {
			return CommitResult{}, err
		}
		if conflict {
			conflicted = append(conflicted, d)
			if cs.transactionMode == AllOrNothing {
				rollback = true
				// The rest of the batch is not evaluated; it fails with it.
				conflicted = append(conflicted, deltas[i+1:]...)
				break
			}
			continue
		}
		if err := d.Apply(cs, false); err != nil {
			return CommitResult{}, err
		}
		applied = append(applied, d)
	}

	if rollback {
		if ctx != nil {
			ctx.Infof("rolling back %d deltas after an all-or-nothing conflict", len(applied))
		}
		for _, d := range applied {
			if err := d.Unapply(cs, false); err != nil {
				return CommitResult{}, err
			}
			// Undo the sequence-number bump of the rolled-back apply.
			cs.machineSeqNum[d.MachineID]--
			conflicted = append(conflicted, d)
		}
		applied = nil
	}

	if scheduleEndEvent {
		if afterDelay == nil {
			return CommitResult{}, errors.New("scheduleEndEvent requested but afterDelay is nil")
		}
		for _, d := range applied {
			d := d
			afterDelay(d.Duration, func() {
				_ = d.Unapply(cs, false)
			})
		}
	}

	return CommitResult{Committed: applied, Conflicted: conflicted}, nil
}

// causesConflict reports whether d would conflict if applied now,
// using the mode-appropriate test.
func (cs *CellState) causesConflict(ctx *simcontext.Context, d *ClaimDelta) (bool, error) {
	switch cs.conflictMode {
	case SequenceNumbers:
		cur, err := cs.MachineSeqNum(d.MachineID)
		if err != nil {
			return false, err
		}
		if d.MachineSeqNum != cur {
			if ctx != nil {
				ctx.Infof("sequence-number conflict (sched=%s mach=%d seq=%d current=%d cpus=%f mem=%f)",
					d.SchedulerName, d.MachineID, d.MachineSeqNum, cur, d.Cpus, d.Mem)
			}
			return true, nil
		}
		return false, nil
	case ResourceFit:
		availCpus, err := cs.AvailableCpusOn(d.MachineID)
		if err != nil {
			return false, err
		}
		availMem, err := cs.AvailableMemOn(d.MachineID)
		if err != nil {
			return false, err
		}
		if availCpus < d.Cpus || availMem < d.Mem {
			if ctx != nil {
				ctx.Infof("resource-fit conflict (sched=%s mach=%d cpus=%f mem=%f)",
					d.SchedulerName, d.MachineID, d.Cpus, d.Mem)
			}
			return true, nil
		}
		return false, nil
	default:
		return false, errors.Errorf("unrecognized conflict mode: %v", cs.conflictMode)
	}
}

func (cs *CellState) String() string {
	return fmt.Sprintf("CellState(machines=%d cpus/mach=%.1f mem/mach=%.1f avail_cpu=%.1f avail_mem=%.1f)",
		cs.numMachines, cs.cpusPerMachine, cs.memPerMachine, cs.AvailableCpus(), cs.AvailableMem())
}
