// Package simulator implements the discrete-event kernel that drives
// virtual time (spec.md §4.1). It owns the CellState ledger, the
// event queue, and a registry of schedulers by name; all mutation of
// CellState happens synchronously from within the active callback, so
// there is no need for locks (spec.md §5).
package simulator

import (
	"time"

	"github.com/pkg/errors"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/eventqueue"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simcontext"
)

// RunStatus reports how Run terminated.
type RunStatus int

const (
	// Completed means the event queue drained (or maxVirtualTime was
	// reached) without hitting the wall-clock timeout.
	Completed RunStatus = iota
	// TimedOut means the wall-clock budget was exhausted before the
	// simulation finished.
	TimedOut
)

// Scheduler is the minimal capability every registered scheduler must
// expose, enough for the simulator's registry to look schedulers up
// by name (spec.md §9's "capability object with name").
type Scheduler interface {
	SchedulerName() string
}

// Host is the subset of Simulator that schedulers and the allocator
// need: scheduling callbacks, reading the shared ledger, and logging.
// Defining it as an interface (rather than a concrete *Simulator
// field) keeps omega/mesos from needing to import this package's
// concrete type, avoiding the back-pointer cycle the Java original
// has between CellState, Simulator, and IScheduler (spec.md §9).
type Host interface {
	CurrentTime() float64
	AfterDelay(delay float64, action func())
	Log(msg string)
	CellState() *cellstate.CellState
}

// Simulator is the cooperative single-threaded event-loop kernel.
type Simulator struct {
	currentTime float64
	queue       *eventqueue.EventQueue
	logging     bool
	ctx         *simcontext.Context
	cellState   *cellstate.CellState
	schedulers  map[string]Scheduler
}

// New constructs a Simulator over cellState. ctx supplies the logger
// used by Log; pass simcontext.Background() if the caller has no
// specific context. When logging is false, Log is a no-op.
func New(ctx *simcontext.Context, cellState *cellstate.CellState, logging bool) *Simulator {
	return &Simulator{
		queue:      eventqueue.New(),
		logging:    logging,
		ctx:        ctx,
		cellState:  cellState,
		schedulers: make(map[string]Scheduler),
	}
}

// CurrentTime returns the simulator's monotone virtual clock.
func (s *Simulator) CurrentTime() float64 { return s.currentTime }

// CellState returns the shared resource ledger.
func (s *Simulator) CellState() *cellstate.CellState { return s.cellState }

// AfterDelay enqueues action to run at currentTime+d. d must be >= 0.
// When d is 0, action runs after every event already pending at the
// current virtual time, never synchronously within this call.
func (s *Simulator) AfterDelay(d float64, action func()) {
	if d < 0 {
		panic("simulator: afterDelay called with negative delay")
	}
	s.queue.Push(s.currentTime+d, action)
}

// Log appends "<currentTime> msg" to the logger when logging is
// enabled; otherwise it is a no-op.
func (s *Simulator) Log(msg string) {
	if !s.logging {
		return
	}
	s.ctx.Infof("%v %s", s.currentTime, msg)
}

// RegisterScheduler adds sched to the name registry. Returns an error
// if the name is already registered.
func (s *Simulator) RegisterScheduler(sched Scheduler) error {
	name := sched.SchedulerName()
	if _, exists := s.schedulers[name]; exists {
		return errors.Errorf("scheduler %q already registered", name)
	}
	s.schedulers[name] = sched
	return nil
}

// Scheduler looks up a registered scheduler by name.
func (s *Simulator) Scheduler(name string) (Scheduler, bool) {
	sched, ok := s.schedulers[name]
	return sched, ok
}

// Run pops events in virtual-time order (FIFO among ties) until the
// queue empties, currentTime exceeds maxVirtualTime (if non-nil), or
// wallClockTimeout (if non-nil) elapses.
//
// Event callbacks report programmer errors (spec.md §7's InvalidConfig,
// NoSuchMachine, Overcommit, ProtocolViolation, etc.) by panicking with
// an error value; Run recovers that panic, aborts the run, and returns
// the error. A panic carrying anything other than an error propagates
// unchanged, since that indicates a genuine bug rather than a modeled
// programmer error.
func (s *Simulator) Run(maxVirtualTime *float64, wallClockTimeout *time.Duration) (status RunStatus, err error) {
	start := time.Now()
	s.Log("*** Simulation started. ***")

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	for s.queue.Len() > 0 {
		if maxVirtualTime != nil && s.queue.Peek().Time > *maxVirtualTime {
			break
		}
		if wallClockTimeout != nil && time.Since(start) > *wallClockTimeout {
			return TimedOut, nil
		}
		event := s.queue.Pop()
		s.currentTime = event.Time
		event.Action()
	}

	s.Log("*** Simulation finished. ***")
	return Completed, nil
}

// Fail panics with err so that Run's recover converts it into a
// returned error, aborting the simulation. Scheduler/allocator
// callbacks use this to surface programmer errors raised mid-callback
// (e.g. a commit that should never conflict but did).
func Fail(err error) {
	panic(err)
}
