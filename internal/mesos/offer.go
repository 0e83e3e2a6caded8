package mesos

import "github.com/KanooooXD/omega-scheduler-simulator/internal/cellstate"

// Offer is a one-shot handle the allocator hands to a scheduler: a
// snapshot of the shared ledger taken just before the allocator locked
// resources on the scheduler's behalf. Grounded on scheduler.Offer in
// original_source.
type Offer struct {
	ID        uint64
	TraceID   string
	Scheduler *Scheduler
	CellState *cellstate.CellState
}
