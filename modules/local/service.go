package local

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
)

// Service is a local job service. Jobs live as long as the service.
type Service struct {
	url  *rmurl.URL
	opts options
	jobs sync.Map // id -> *Job

	mu     sync.Mutex
	closed bool
}

func newService(args adaptor.Args, opts options) *Service {
	u := args.URL
	if u.IsZero() {
		u = rmurl.MustParse("fork://localhost")
	}
	return &Service{url: u, opts: opts}
}

// CreateJob registers a new job in the New state. Run starts it.
func (s *Service) CreateJob(ctx context.Context, desc description.Description) (adaptor.Job, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("local: service is closed")
	}

	id := fmt.Sprintf("[%s]-[%s]", s.url, uuid.NewString())
	j := newJob(id, desc, s.opts)
	s.jobs.Store(id, j)
	ctxlog.FromContext(ctx).Debug("Local job created.", "job_id", id)
	return j, nil
}

// List returns the ids of all jobs created through this service, sorted.
func (s *Service) List(context.Context) ([]string, error) {
	var ids []string
	s.jobs.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids, nil
}

func (s *Service) URL(context.Context) (*rmurl.URL, error) {
	return s.url, nil
}

func (s *Service) GetJob(_ context.Context, id string) (adaptor.Job, error) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", adaptor.ErrJobNotFound, id)
	}
	return v.(*Job), nil
}

// Close cancels every job that is still running.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	s.jobs.Range(func(_, v any) bool {
		j := v.(*Job)
		if st, _ := j.State(ctx); st == adaptor.StateRunning {
			if err := j.Cancel(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return true
	})
	return firstErr
}
