package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// FakeService is an in-memory adaptor.JobService.
type FakeService struct {
	Args adaptor.Args

	mu     sync.Mutex
	jobs   []*FakeJob
	calls  map[string]int
	closed bool
}

// NewFakeService creates a service bound to args.
func NewFakeService(args adaptor.Args) *FakeService {
	return &FakeService{Args: args, calls: map[string]int{}}
}

func (s *FakeService) record(op string) {
	s.mu.Lock()
	s.calls[op]++
	s.mu.Unlock()
}

// Calls returns how often op was invoked.
func (s *FakeService) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *FakeService) CreateJob(_ context.Context, desc description.Description) (adaptor.Job, error) {
	s.record("CreateJob")
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &FakeJob{id: fmt.Sprintf("[%s]-[%d]", s.Args.URL, len(s.jobs)+1), desc: desc}
	s.jobs = append(s.jobs, j)
	return j, nil
}

func (s *FakeService) List(context.Context) ([]string, error) {
	s.record("List")
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		ids = append(ids, j.id)
	}
	return ids, nil
}

func (s *FakeService) URL(context.Context) (*rmurl.URL, error) {
	s.record("URL")
	return s.Args.URL, nil
}

func (s *FakeService) GetJob(_ context.Context, id string) (adaptor.Job, error) {
	s.record("GetJob")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.id == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", adaptor.ErrJobNotFound, id)
}

func (s *FakeService) Close(context.Context) error {
	s.record("Close")
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (s *FakeService) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FakeAsyncService adds native task variants to FakeService.
type FakeAsyncService struct {
	*FakeService
}

func (s *FakeAsyncService) CreateJobTask(ctx context.Context, desc description.Description, mode taskmode.Mode) *task.Task[adaptor.Job] {
	s.record("CreateJobTask")
	return launched(ctx, mode, func(ctx context.Context) (adaptor.Job, error) { return s.CreateJob(ctx, desc) })
}

func (s *FakeAsyncService) ListTask(ctx context.Context, mode taskmode.Mode) *task.Task[[]string] {
	s.record("ListTask")
	return launched(ctx, mode, s.List)
}

func (s *FakeAsyncService) URLTask(ctx context.Context, mode taskmode.Mode) *task.Task[*rmurl.URL] {
	s.record("URLTask")
	return launched(ctx, mode, s.URL)
}

func (s *FakeAsyncService) GetJobTask(ctx context.Context, id string, mode taskmode.Mode) *task.Task[adaptor.Job] {
	s.record("GetJobTask")
	return launched(ctx, mode, func(ctx context.Context) (adaptor.Job, error) { return s.GetJob(ctx, id) })
}

func launched[T any](ctx context.Context, mode taskmode.Mode, fn task.Func[T]) *task.Task[T] {
	t := task.New(fn)
	if err := task.Launch(ctx, t, mode); err != nil {
		return task.Rejected[T](err)
	}
	return t
}

// FakeJob completes as soon as it is run.
type FakeJob struct {
	id   string
	desc description.Description

	mu    sync.Mutex
	state adaptor.JobState
}

func (j *FakeJob) ID() string                           { return j.id }
func (j *FakeJob) Description() description.Description { return j.desc }

func (j *FakeJob) State(context.Context) (adaptor.JobState, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, nil
}

func (j *FakeJob) Run(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != adaptor.StateNew {
		return fmt.Errorf("job %s already %s", j.id, j.state)
	}
	j.state = adaptor.StateDone
	return nil
}

func (j *FakeJob) Wait(ctx context.Context) (adaptor.JobState, error) {
	return j.State(ctx)
}

func (j *FakeJob) Cancel(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.state.IsFinal() {
		j.state = adaptor.StateCanceled
	}
	return nil
}

func (j *FakeJob) ExitCode() (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return 0, j.state == adaptor.StateDone
}
