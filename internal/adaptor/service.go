package adaptor

import (
	"context"

	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// JobService is a bound adaptor instance managing jobs on one resource manager.
type JobService interface {
	CreateJob(ctx context.Context, desc description.Description) (Job, error)
	List(ctx context.Context) ([]string, error)
	URL(ctx context.Context) (*rmurl.URL, error)
	GetJob(ctx context.Context, id string) (Job, error)
	Close(ctx context.Context) error
}

// AsyncJobService is implemented by instances with native task variants.
// The returned tasks must already be launched according to mode.
type AsyncJobService interface {
	JobService
	CreateJobTask(ctx context.Context, desc description.Description, mode taskmode.Mode) *task.Task[Job]
	ListTask(ctx context.Context, mode taskmode.Mode) *task.Task[[]string]
	URLTask(ctx context.Context, mode taskmode.Mode) *task.Task[*rmurl.URL]
	GetJobTask(ctx context.Context, id string, mode taskmode.Mode) *task.Task[Job]
}
