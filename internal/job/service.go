package job

import (
	"context"
	"errors"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/engine"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/session"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// ErrNotImplemented is returned by operations no adaptor provides.
var ErrNotImplemented = errors.New("job: not implemented")

type options struct {
	hint  string
	state map[string]any
}

// Option configures Create.
type Option func(*options)

// WithAdaptor forces the adaptor called name instead of the preferred one.
func WithAdaptor(name string) Option {
	return func(o *options) { o.hint = name }
}

// WithState passes extra construction parameters to the adaptor.
func WithState(state map[string]any) Option {
	return func(o *options) { o.state = state }
}

// Service manages jobs on one resource manager.
type Service struct {
	url     *rmurl.URL
	session *session.Session
	binding *engine.Binding
}

// NewService creates a service synchronously.
func NewService(ctx context.Context, eng *engine.Engine, rmURL string, sess *session.Session, opts ...Option) (*Service, error) {
	return Create(ctx, eng, rmURL, sess, taskmode.NoTask, opts...)
}

// Create binds a service to the adaptor serving rmURL. Parse and resolution
// errors are returned directly in every mode. A nil session means the
// default session of the current user.
func Create(ctx context.Context, eng *engine.Engine, rmURL string, sess *session.Session, mode taskmode.Mode, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	u, err := rmurl.Parse(rmURL)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = session.Default()
	}

	b, err := eng.Bind(ctx, engine.Request{
		Kind:    adaptor.KindJobService,
		URL:     u,
		Mode:    mode,
		Hint:    o.hint,
		Session: sess,
		State:   o.state,
	})
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("Job service created.", "url", u, "adaptor", b.Descriptor().Name, "mode", mode.String(), "ready", b.Ready())
	return &Service{url: u, session: sess, binding: b}, nil
}

// Binding exposes the construction handle: state, wait and cancel.
func (s *Service) Binding() *engine.Binding { return s.binding }

// Adaptor returns the name of the bound adaptor.
func (s *Service) Adaptor() string { return s.binding.Descriptor().Name }

// Session returns the session the service was created with.
func (s *Service) Session() *session.Session { return s.session }

// CreateJob validates d and submits it to the adaptor. An invalid draft is
// rejected before the adaptor is involved.
func (s *Service) CreateJob(ctx context.Context, d description.Draft) (adaptor.Job, error) {
	desc, err := description.Build(d)
	if err != nil {
		return nil, err
	}
	svc, err := s.binding.Instance(ctx)
	if err != nil {
		return nil, err
	}
	j, err := svc.CreateJob(ctx, desc)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Job created.", "job_id", j.ID(), "executable", desc.Executable())
	return j, nil
}

// RunJob is not provided by any adaptor and always fails.
func (s *Service) RunJob(context.Context, string, string) (adaptor.Job, error) {
	return nil, ErrNotImplemented
}

// List returns the ids of the jobs known to the resource manager.
func (s *Service) List(ctx context.Context) ([]string, error) {
	svc, err := s.binding.Instance(ctx)
	if err != nil {
		return nil, err
	}
	return svc.List(ctx)
}

// Jobs is List.
func (s *Service) Jobs(ctx context.Context) ([]string, error) {
	return s.List(ctx)
}

// URL returns the resource manager URL as reported by the adaptor.
func (s *Service) URL(ctx context.Context) (*rmurl.URL, error) {
	svc, err := s.binding.Instance(ctx)
	if err != nil {
		return nil, err
	}
	return svc.URL(ctx)
}

// GetJob reconnects to the job with the given id.
func (s *Service) GetJob(ctx context.Context, id string) (adaptor.Job, error) {
	svc, err := s.binding.Instance(ctx)
	if err != nil {
		return nil, err
	}
	return svc.GetJob(ctx, id)
}

// Close releases the adaptor instance, or cancels its construction.
func (s *Service) Close(ctx context.Context) error {
	return s.binding.Close(ctx)
}
