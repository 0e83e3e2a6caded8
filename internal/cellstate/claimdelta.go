package cellstate

// ClaimDelta is one proposed reservation: a scheduler's claim on a
// number of cpus and mem on a specific machine, for a given task
// duration, built against a belief about that machine's sequence
// number at construction time. Grounded on simulator.core.ClaimDelta
// in original_source.
type ClaimDelta struct {
	SchedulerName string
	MachineID     int
	MachineSeqNum uint32
	Duration      float64
	Cpus          float64
	Mem           float64
}

// NewClaimDelta builds a ClaimDelta. machineSeqNum should be the
// scheduler's belief about the machine's current sequence number,
// read from whatever CellState view (shared or private snapshot) the
// scheduler is placing against.
func NewClaimDelta(schedulerName string, machineID int, machineSeqNum uint32, duration, cpus, mem float64) *ClaimDelta {
	return &ClaimDelta{
		SchedulerName: schedulerName,
		MachineID:     machineID,
		MachineSeqNum: machineSeqNum,
		Duration:      duration,
		Cpus:          cpus,
		Mem:           mem,
	}
}

// Apply assigns this delta's resources against cellState and, on
// success, increments the target machine's sequence number. Locked
// applies (Mesos offer holds) do not touch the sequence number: it is
// the token Omega's optimistic concurrency control watches, and a
// Mesos lock is released and re-applied as a plain commit before it
// ever becomes externally observable as a placement (spec.md §8: the
// seq num counts non-locked applies only).
func (d *ClaimDelta) Apply(cs *CellState, locked bool) error {
	if err := cs.AssignResources(d.SchedulerName, d.MachineID, d.Cpus, d.Mem, locked); err != nil {
		return err
	}
	if !locked {
		cs.incrementMachineSeqNum(d.MachineID)
	}
	return nil
}

// Unapply frees this delta's resources back to cellState. It does not
// touch the sequence number: an apply/unapply round trip restores the
// resource arrays exactly, but the seq num is a monotonic history of
// applies, not a reservation count.
func (d *ClaimDelta) Unapply(cs *CellState, locked bool) error {
	return cs.FreeResources(d.SchedulerName, d.MachineID, d.Cpus, d.Mem, locked)
}
