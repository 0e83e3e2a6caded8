package omega

import "github.com/pkg/errors"

func errNoUnscheduledTasks(jobID uint64) error {
	return errors.Errorf("job %d must have unscheduled tasks to be added to a scheduler", jobID)
}
