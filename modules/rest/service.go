package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
)

// Service is a job service backed by a REST job manager.
type Service struct {
	url  *rmurl.URL
	poll time.Duration
	c    *client

	mu   sync.Mutex
	jobs map[string]*Job
}

func newService(ctx context.Context, args adaptor.Args) (*Service, error) {
	if args.URL.IsZero() || args.URL.Host() == "" {
		return nil, errors.New("rest: a URL with a host is required")
	}
	o, err := parseOptions(args.State)
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("adaptor", Name, "url", args.URL)

	std := args.URL.Std()
	std.RawQuery, std.Fragment = "", ""
	return &Service{
		url:  args.URL,
		poll: o.PollInterval,
		c:    &client{http: newHTTPClient(o), base: std.String(), logger: logger},
		jobs: map[string]*Job{},
	}, nil
}

func jobPath(id string, suffix string) string {
	return "/jobs/" + url.PathEscape(id) + suffix
}

func (s *Service) CreateJob(ctx context.Context, desc description.Description) (adaptor.Job, error) {
	var resp jobResponse
	if err := s.c.do(ctx, http.MethodPost, "/jobs", map[string]any{"description": desc.Map()}, &resp); err != nil {
		return nil, err
	}
	if resp.JobID == "" {
		return nil, errors.New("rest: create response has no job_id")
	}
	j := &Job{svc: s, id: resp.JobID, desc: desc, state: adaptor.StateNew}
	j.update(resp)
	s.remember(j)
	return j, nil
}

func (s *Service) List(ctx context.Context) ([]string, error) {
	var resp listResponse
	if err := s.c.do(ctx, http.MethodGet, "/jobs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

func (s *Service) URL(context.Context) (*rmurl.URL, error) {
	return s.url, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (adaptor.Job, error) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()
	if ok {
		return j, nil
	}

	var resp jobResponse
	if err := s.c.do(ctx, http.MethodGet, jobPath(id, ""), nil, &resp); err != nil {
		return nil, fmt.Errorf("rest: get job %s: %w", id, err)
	}
	j = &Job{svc: s, id: id, state: adaptor.StateUnknown}
	j.update(resp)
	s.remember(j)
	return j, nil
}

func (s *Service) remember(j *Job) {
	s.mu.Lock()
	s.jobs[j.id] = j
	s.mu.Unlock()
}

// Close releases idle connections.
func (s *Service) Close(context.Context) error {
	s.c.http.CloseIdleConnections()
	return nil
}
