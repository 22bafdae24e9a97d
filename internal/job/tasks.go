package job

import (
	"context"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// CreateJobTask is the task variant of CreateJob.
func (s *Service) CreateJobTask(ctx context.Context, d description.Draft, mode taskmode.Mode) *task.Task[adaptor.Job] {
	desc, err := description.Build(d)
	if err != nil {
		return task.Rejected[adaptor.Job](err)
	}
	return forward(ctx, s, mode,
		func(ctx context.Context, a adaptor.AsyncJobService, m taskmode.Mode) *task.Task[adaptor.Job] {
			return a.CreateJobTask(ctx, desc, m)
		},
		func(ctx context.Context, svc adaptor.JobService) (adaptor.Job, error) {
			return svc.CreateJob(ctx, desc)
		})
}

// RunJobTask always returns a failed task carrying ErrNotImplemented.
func (s *Service) RunJobTask(context.Context, string, string, taskmode.Mode) *task.Task[adaptor.Job] {
	return task.Rejected[adaptor.Job](ErrNotImplemented)
}

// ListTask is the task variant of List.
func (s *Service) ListTask(ctx context.Context, mode taskmode.Mode) *task.Task[[]string] {
	return forward(ctx, s, mode,
		func(ctx context.Context, a adaptor.AsyncJobService, m taskmode.Mode) *task.Task[[]string] { return a.ListTask(ctx, m) },
		func(ctx context.Context, svc adaptor.JobService) ([]string, error) { return svc.List(ctx) })
}

// URLTask is the task variant of URL.
func (s *Service) URLTask(ctx context.Context, mode taskmode.Mode) *task.Task[*rmurl.URL] {
	return forward(ctx, s, mode,
		func(ctx context.Context, a adaptor.AsyncJobService, m taskmode.Mode) *task.Task[*rmurl.URL] { return a.URLTask(ctx, m) },
		func(ctx context.Context, svc adaptor.JobService) (*rmurl.URL, error) { return svc.URL(ctx) })
}

// GetJobTask is the task variant of GetJob.
func (s *Service) GetJobTask(ctx context.Context, id string, mode taskmode.Mode) *task.Task[adaptor.Job] {
	return forward(ctx, s, mode,
		func(ctx context.Context, a adaptor.AsyncJobService, m taskmode.Mode) *task.Task[adaptor.Job] { return a.GetJobTask(ctx, id, m) },
		func(ctx context.Context, svc adaptor.JobService) (adaptor.Job, error) { return svc.GetJob(ctx, id) })
}

// forward hands the call to the instance's native task variant when the
// instance is ready and has one. Otherwise the call runs inside a new task
// that first waits for the instance. NoTask is treated as Sync.
func forward[T any](
	ctx context.Context,
	s *Service,
	mode taskmode.Mode,
	native func(context.Context, adaptor.AsyncJobService, taskmode.Mode) *task.Task[T],
	call func(context.Context, adaptor.JobService) (T, error),
) *task.Task[T] {
	if mode == taskmode.NoTask {
		mode = taskmode.Sync
	}

	if s.binding.Ready() {
		if svc, err := s.binding.Instance(ctx); err == nil {
			if a, ok := svc.(adaptor.AsyncJobService); ok {
				return native(ctx, a, mode)
			}
		}
	}

	t := task.New(func(ctx context.Context) (T, error) {
		svc, err := s.binding.Instance(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if a, ok := svc.(adaptor.AsyncJobService); ok {
			return native(ctx, a, taskmode.Sync).Wait(ctx)
		}
		return call(ctx, svc)
	})
	runCtx := ctx
	if mode == taskmode.Async {
		runCtx = context.WithoutCancel(ctx)
	}
	if err := task.Launch(runCtx, t, mode); err != nil {
		return task.Rejected[T](err)
	}
	return t
}
