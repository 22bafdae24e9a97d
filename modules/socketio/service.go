package socketio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
)

// Service is a job service backed by a remote manager.
type Service struct {
	url  *rmurl.URL
	opts options
	c    *client

	mu   sync.Mutex
	jobs map[string]*Job
}

func newService(ctx context.Context, args adaptor.Args) (*Service, error) {
	if args.URL.IsZero() {
		return nil, errors.New("socketio: a URL is required")
	}
	logger := ctxlog.FromContext(ctx).With("adaptor", Name, "url", args.URL)

	o, err := parseOptions(args.State)
	if err != nil {
		return nil, err
	}

	logger.Info("Creating new client instance...")
	c, err := dial(ctx, args.URL, o, logger)
	if err != nil {
		return nil, err
	}
	return &Service{url: args.URL, opts: o, c: c, jobs: map[string]*Job{}}, nil
}

// CreateJob submits desc. The remote job starts in the New state.
func (s *Service) CreateJob(ctx context.Context, desc description.Description) (adaptor.Job, error) {
	resp, err := s.c.call(ctx, "create", map[string]any{"description": desc.Map()})
	if err != nil {
		return nil, err
	}
	id := attrString(resp, "job_id")
	if id == "" {
		return nil, errors.New("socketio: create response has no job_id")
	}

	j := newJob(s, id, desc)
	j.update(resp)
	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()
	return j, nil
}

func (s *Service) List(ctx context.Context) ([]string, error) {
	resp, err := s.c.call(ctx, "list", nil)
	if err != nil {
		return nil, err
	}
	ids, err := attrStrings(resp, "ids")
	if err != nil {
		return nil, fmt.Errorf("socketio: invalid list response: %w", err)
	}
	return ids, nil
}

func (s *Service) URL(context.Context) (*rmurl.URL, error) {
	return s.url, nil
}

// GetJob returns a known job, or asks the remote side whether id exists.
func (s *Service) GetJob(ctx context.Context, id string) (adaptor.Job, error) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()
	if ok {
		return j, nil
	}

	resp, err := s.c.call(ctx, "state", map[string]any{"job_id": id})
	if err != nil {
		return nil, err
	}
	j = newJob(s, id, description.Description{})
	j.update(resp)
	s.mu.Lock()
	s.jobs[id] = j
	s.mu.Unlock()
	return j, nil
}

func (s *Service) Close(context.Context) error {
	s.c.close()
	return nil
}
