package adaptor

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sagagrid/internal/description"
)

// JobState is the backend-reported state of a job.
type JobState int

const (
	StateNew JobState = iota
	StatePending
	StateRunning
	StateDone
	StateFailed
	StateCanceled
	StateUnknown
)

var jobStateNames = [...]string{"New", "Pending", "Running", "Done", "Failed", "Canceled", "Unknown"}

func (s JobState) String() string {
	if s >= 0 && int(s) < len(jobStateNames) {
		return jobStateNames[s]
	}
	return fmt.Sprintf("JobState(%d)", int(s))
}

// ParseJobState maps a state name back to a JobState. Unknown names map to
// StateUnknown.
func ParseJobState(name string) JobState {
	for i, n := range jobStateNames {
		if n == name {
			return JobState(i)
		}
	}
	return StateUnknown
}

// IsFinal reports whether no further transitions are possible.
func (s JobState) IsFinal() bool {
	return s == StateDone || s == StateFailed || s == StateCanceled
}

// Job is a single job created through a JobService.
type Job interface {
	ID() string
	State(ctx context.Context) (JobState, error)
	Description() description.Description
	Run(ctx context.Context) error
	Wait(ctx context.Context) (JobState, error)
	Cancel(ctx context.Context) error
	// ExitCode returns the exit code once known.
	ExitCode() (int, bool)
}
