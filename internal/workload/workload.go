package workload

import "github.com/pkg/errors"

// ErrWorkloadMismatch is returned when a Job's WorkloadName does not
// match the Workload it's being added to.
var ErrWorkloadMismatch = errors.New("job workload name does not match workload name")

// Workload is a named, insertion-order-preserving collection of Jobs.
// Grounded on simulator.core.Workload in original_source.
type Workload struct {
	Name string
	jobs []*Job
}

// NewWorkload returns an empty Workload named name.
func NewWorkload(name string) *Workload {
	return &Workload{Name: name}
}

// AddJob appends job to the workload. Returns ErrWorkloadMismatch if
// job.WorkloadName != w.Name.
func (w *Workload) AddJob(job *Job) error {
	if job.WorkloadName != w.Name {
		return errors.Wrapf(ErrWorkloadMismatch, "job workload %q != workload %q", job.WorkloadName, w.Name)
	}
	w.jobs = append(w.jobs, job)
	return nil
}

// AddJobs appends each job in order, stopping at the first mismatch.
func (w *Workload) AddJobs(jobs []*Job) error {
	for _, j := range jobs {
		if err := w.AddJob(j); err != nil {
			return err
		}
	}
	return nil
}

// Jobs returns a copy of the contained job slice (shallow: same Job
// pointers), so callers can't mutate the workload's own slice.
func (w *Workload) Jobs() []*Job {
	out := make([]*Job, len(w.jobs))
	copy(out, w.jobs)
	return out
}

// NumJobs returns the number of jobs currently in the workload.
func (w *Workload) NumJobs() int { return len(w.jobs) }

// TotalCPUs is the sum of numTasks*cpusPerTask across every contained
// job, useful for sizing a cell before a run.
func (w *Workload) TotalCPUs() float64 {
	var total float64
	for _, j := range w.jobs {
		total += float64(j.NumTasks) * j.CpusPerTask
	}
	return total
}

// TotalMem is the memory analogue of TotalCPUs.
func (w *Workload) TotalMem() float64 {
	var total float64
	for _, j := range w.jobs {
		total += float64(j.NumTasks) * j.MemPerTask
	}
	return total
}

// TotalUsefulThinkTime sums UsefulTimeScheduling across every job.
func (w *Workload) TotalUsefulThinkTime() float64 {
	var total float64
	for _, j := range w.jobs {
		total += j.UsefulTimeScheduling
	}
	return total
}

// TotalWastedThinkTime sums WastedTimeScheduling across every job.
func (w *Workload) TotalWastedThinkTime() float64 {
	var total float64
	for _, j := range w.jobs {
		total += j.WastedTimeScheduling
	}
	return total
}

// Copy returns a deep copy of w: a new Workload with deep-copied jobs.
func (w *Workload) Copy() *Workload {
	cp := NewWorkload(w.Name)
	cp.jobs = make([]*Job, len(w.jobs))
	for i, j := range w.jobs {
		cp.jobs[i] = j.Copy()
	}
	return cp
}
