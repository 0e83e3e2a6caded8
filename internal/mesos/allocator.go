// Package mesos implements the pessimistic, offer-based allocation
// style: a central Allocator batches resource requests, picks the
// least-served scheduler by Dominant Resource Fairness, locks
// resources against the shared ledger, and lets the scheduler choose
// what to keep. Grounded on scheduler.MesosAllocator/Offer in
// original_source.
package mesos

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"
	"github.com/KanooooXD/omega-scheduler-simulator/internal/simulator"
)

// Allocator is the central Mesos-style offer broker.
type Allocator struct {
	host simulator.Host

	requesters   map[string]*Scheduler
	offeredDeltas map[uint64][]*cellstate.ClaimDelta
	nextOfferID  uint64
	offerPending bool

	timeSpentAllocating float64

	ConstantThinkTime  float64
	MinCpuOffer        float64
	MinMemOffer        float64
	OfferBatchInterval float64
}

// DefaultMinCpuOffer and DefaultMinMemOffer match spec.md §6's
// recognized configuration defaults.
const (
	DefaultMinCpuOffer        = 100.0
	DefaultMinMemOffer        = 100.0
	DefaultOfferBatchInterval = 1.0
)

// New constructs an Allocator. minCpuOffer/minMemOffer/offerBatchInterval
// of 0 fall back to the spec's documented defaults, matching the
// single-argument constructor original_source exposes alongside the
// fully-parameterized one.
func New(constantThinkTime, minCpuOffer, minMemOffer, offerBatchInterval float64) *Allocator {
	if minCpuOffer == 0 {
		minCpuOffer = DefaultMinCpuOffer
	}
	if minMemOffer == 0 {
		minMemOffer = DefaultMinMemOffer
	}
	if offerBatchInterval == 0 {
		offerBatchInterval = DefaultOfferBatchInterval
	}
	return &Allocator{
		requesters:         make(map[string]*Scheduler),
		offeredDeltas:      make(map[uint64][]*cellstate.ClaimDelta),
		ConstantThinkTime:  constantThinkTime,
		MinCpuOffer:        minCpuOffer,
		MinMemOffer:        minMemOffer,
		OfferBatchInterval: offerBatchInterval,
	}
}

// SetHost wires the allocator into a running Simulator. Mesos requires
// the ledger to use resource-fit conflict detection, since DRF
// arbitration assumes concurrent non-conflicting claims are possible;
// enforced here since this is the first point the ledger is visible.
func (a *Allocator) SetHost(h simulator.Host) error {
	if h.CellState().ConflictMode() != cellstate.ResourceFit {
		return errors.Wrap(cellstate.ErrInvalidConfig, "mesos requires cellstate to be configured with resource-fit conflict mode")
	}
	a.host = h
	return nil
}

// TimeSpentAllocating reports total virtual time the allocator has
// spent "thinking" while building offers.
func (a *Allocator) TimeSpentAllocating() float64 { return a.timeSpentAllocating }

// RequestOffer registers sched as wanting resources and schedules a
// batched build.
func (a *Allocator) RequestOffer(sched *Scheduler) {
	a.host.Log(fmt.Sprintf("received an offer request from %s", sched.Name))
	a.requesters[sched.Name] = sched
	a.schedBuildAndSendOffer()
}

// CancelOfferRequest removes sched from the requester set.
func (a *Allocator) CancelOfferRequest(sched *Scheduler) {
	a.host.Log(fmt.Sprintf("canceling the outstanding offer request for %s", sched.Name))
	delete(a.requesters, sched.Name)
}

func (a *Allocator) schedBuildAndSendOffer() {
	if a.offerPending {
		return
	}
	a.offerPending = true
	a.host.AfterDelay(a.OfferBatchInterval, func() {
		a.host.Log("building and sending a batched offer")
		a.buildAndSendOffer()
		a.offerPending = false
	})
}

// buildAndSendOffer is the Build step of spec.md §4.5's protocol.
func (a *Allocator) buildAndSendOffer() {
	cs := a.host.CellState()
	a.host.Log(fmt.Sprintf(
		"top of build and send: cellstate occupied %.2f cpus (%.1f%%), %.2f mem (%.1f%%)",
		cs.TotalOccupiedCpus(), cs.TotalOccupiedCpus()/cs.TotalCpus()*100.0,
		cs.TotalOccupiedMem(), cs.TotalOccupiedMem()/cs.TotalMem()*100.0))

	if len(a.requesters) == 0 || cs.AvailableCpus() < a.MinCpuOffer || cs.AvailableMem() < a.MinMemOffer {
		a.host.Log(fmt.Sprintf(
			"not sending an offer: %d requesters, %.2f cpus / %.2f mem available, minimums are %.2f / %.2f",
			len(a.requesters), cs.AvailableCpus(), cs.AvailableMem(), a.MinCpuOffer, a.MinMemOffer))
		return
	}

	sorted := a.drfSortSchedulers()
	candidate := sorted[0]

	snapshot := cs.Copy()
	offer := &Offer{ID: a.nextOfferID, TraceID: uuid.NewString(), Scheduler: candidate, CellState: snapshot}
	a.nextOfferID++

	deltas, err := candidate.ScheduleAllAvailable(cs, true)
	if err != nil {
		simulator.Fail(err)
	}
	if len(deltas) == 0 {
		return
	}
	a.offeredDeltas[offer.ID] = deltas

	thinkTime := a.ConstantThinkTime
	a.host.AfterDelay(thinkTime, func() {
		a.timeSpentAllocating += thinkTime
		a.host.Log(fmt.Sprintf("allocator done thinking, sending offer %d (%s) to %s", offer.ID, offer.TraceID, candidate.Name))
		candidate.ResourceOffer(offer)
	})
}

// RespondToOffer is the Respond step: it unlocks the reserved deltas,
// commits whatever the scheduler actually chose, and triggers the
// next batch.
func (a *Allocator) RespondToOffer(offer *Offer, chosenDeltas []*cellstate.ClaimDelta) error {
	cs := a.host.CellState()
	a.host.Log(fmt.Sprintf("scheduler %s responded to offer %d with %d claim deltas", offer.Scheduler.Name, offer.ID, len(chosenDeltas)))

	saved, ok := a.offeredDeltas[offer.ID]
	if !ok {
		return errOfferNotFound(offer.ID)
	}
	delete(a.offeredDeltas, offer.ID)
	for _, d := range saved {
		if err := d.Unapply(cs, true); err != nil {
			return err
		}
	}

	if len(chosenDeltas) > 0 {
		result, err := cs.Commit(nil, chosenDeltas, false, a.host.AfterDelay)
		if err != nil {
			return err
		}
		if len(result.Conflicted) > 0 {
			return errors.Wrapf(cellstate.ErrProtocolViolation, "offer %d's response produced %d conflicting deltas", offer.ID, len(result.Conflicted))
		}
		for _, d := range result.Committed {
			d := d
			a.host.AfterDelay(d.Duration, func() {
				_ = d.Unapply(cs, false)
				a.host.Log(fmt.Sprintf("task from %s finished, freeing %.2f cpus / %.2f mem", d.SchedulerName, d.Cpus, d.Mem))
				a.schedBuildAndSendOffer()
			})
		}
	}

	a.schedBuildAndSendOffer()
	return nil
}

// drfSortSchedulers orders the requester set ascending by dominant
// resource share, ties broken by the order map iteration happens to
// encounter them in a deterministic (name-sorted) pass, since Go maps
// don't iterate in insertion order.
func (a *Allocator) drfSortSchedulers() []*Scheduler {
	cs := a.host.CellState()
	names := make([]string, 0, len(a.requesters))
	for name := range a.requesters {
		names = append(names, name)
	}
	sort.Strings(names)

	type scored struct {
		sched *Scheduler
		share float64
	}
	scores := make([]scored, 0, len(names))
	for _, name := range names {
		sched := a.requesters[name]
		cpuShare := cs.OccupiedCpus()[name] / cs.TotalCpus()
		memShare := cs.OccupiedMem()[name] / cs.TotalMem()
		dom := cpuShare
		domName := "cpus"
		if memShare > cpuShare {
			dom = memShare
			domName = "mem"
		}
		a.host.Log(fmt.Sprintf("%s's dominant share is %s (%.4f)", name, domName, dom))
		scores = append(scores, scored{sched: sched, share: dom})
	}

	slices.SortStableFunc(scores, func(a, b scored) bool { return a.share < b.share })

	result := make([]*Scheduler, len(scores))
	for i, sc := range scores {
		result[i] = sc.sched
	}
	return result
}
