package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/resolver"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/session"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentBinds bounds concurrent asynchronous constructions when
// Config leaves it unset.
const DefaultMaxConcurrentBinds = 8

// Config tunes an Engine.
type Config struct {
	// MaxConcurrentBinds bounds asynchronous constructions in flight.
	MaxConcurrentBinds int
	// DefaultState is merged under every request's State.
	DefaultState map[string]any
}

// Engine resolves and binds requests. It is safe for concurrent use.
type Engine struct {
	cfg Config
	reg *registry.Registry
	res *resolver.Resolver
	sem *semaphore.Weighted
}

// New builds a registry from modules, seals it and returns an engine over it.
func New(ctx context.Context, cfg Config, modules ...registry.Module) (*Engine, error) {
	reg := registry.New()
	if err := reg.Load(ctx, modules...); err != nil {
		return nil, err
	}
	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}
	return NewWithRegistry(reg, cfg), nil
}

// NewWithRegistry returns an engine over an already populated registry,
// sealing it.
func NewWithRegistry(reg *registry.Registry, cfg Config) *Engine {
	reg.Seal()
	if cfg.MaxConcurrentBinds <= 0 {
		cfg.MaxConcurrentBinds = DefaultMaxConcurrentBinds
	}
	return &Engine{
		cfg: cfg,
		reg: reg,
		res: resolver.New(reg),
		sem: semaphore.NewWeighted(int64(cfg.MaxConcurrentBinds)),
	}
}

// Registry returns the engine's sealed registry.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Resolve selects the adaptor for kind and url without constructing it.
func (e *Engine) Resolve(kind adaptor.Kind, url *rmurl.URL, mode taskmode.Mode, hint string) (registry.Entry, error) {
	return e.res.Resolve(resolver.Request{Kind: kind, URL: url, Mode: mode, Hint: hint})
}

// Request describes one binding.
type Request struct {
	// Kind defaults to adaptor.KindJobService.
	Kind    adaptor.Kind
	URL     *rmurl.URL
	Mode    taskmode.Mode
	Hint    string
	Session *session.Session
	State   map[string]any
}

// Bind resolves req and constructs, or schedules the construction of, one
// adaptor instance.
//
// With taskmode.NoTask a construction error is returned directly. With the
// task modes it is delivered through the binding's task.
func (e *Engine) Bind(ctx context.Context, req Request) (*Binding, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: %s", taskmode.ErrUnknownMode, req.Mode)
	}
	if req.Kind == "" {
		req.Kind = adaptor.KindJobService
	}

	entry, err := e.Resolve(req.Kind, req.URL, req.Mode, req.Hint)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Resolution failed.", "kind", req.Kind, "url", req.URL, "hint", req.Hint, "error", err)
		return nil, err
	}

	ctx, logger := ctxlog.With(ctx, "adaptor", entry.Descriptor.Name, "mode", req.Mode.String())
	logger.Debug("Resolved adaptor.", "kind", req.Kind, "url", req.URL)

	args := adaptor.Args{URL: req.URL, Session: req.Session, State: e.mergeState(req.State)}
	if args.Session == nil {
		args.Session = session.New()
	}

	if req.Mode == taskmode.NoTask {
		svc, err := entry.Adaptor.NewJobService(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("failed to construct %s: %w", entry.Descriptor.Name, err)
		}
		logger.Debug("Adaptor instance constructed.")
		return &Binding{entry: entry, mode: req.Mode, task: task.Resolved(svc)}, nil
	}

	inner, err := entry.Adaptor.NewJobServiceTask(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("failed to create construction task for %s: %w", entry.Descriptor.Name, err)
	}
	if inner == nil {
		return nil, fmt.Errorf("adaptor %s returned no construction task", entry.Descriptor.Name)
	}

	var bound *task.Task[adaptor.JobService]
	bound = task.New(func(runCtx context.Context) (adaptor.JobService, error) {
		if err := e.sem.Acquire(runCtx, 1); err != nil {
			return nil, err
		}
		defer e.sem.Release(1)

		logger.Debug("Adaptor construction started.")
		var svc adaptor.JobService
		var err error
		if inner.State() == task.Created {
			svc, err = inner.Run(runCtx)
		} else {
			svc, err = inner.Wait(runCtx)
		}
		if err != nil {
			if runCtx.Err() != nil {
				logger.Warn("Adaptor construction cancelled.", "error", err)
			}
			return nil, fmt.Errorf("failed to construct %s: %w", entry.Descriptor.Name, err)
		}
		logger.Debug("Adaptor construction finished.")
		go closeIfCancelled(runCtx, bound, svc, logger)
		return svc, nil
	})

	b := &Binding{entry: entry, mode: req.Mode, task: bound}
	if err := task.Launch(detach(ctx, req.Mode), bound, req.Mode); err != nil {
		return nil, err
	}
	return b, nil
}

// closeIfCancelled closes svc when a cancel won against its construction.
// Nobody else can reach an instance whose binding ended Cancelled.
func closeIfCancelled(ctx context.Context, t *task.Task[adaptor.JobService], svc adaptor.JobService, logger *slog.Logger) {
	<-t.Done()
	if t.State() != task.Cancelled {
		return
	}
	logger.Debug("Closing instance constructed after cancellation.")
	if err := svc.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Failed to close abandoned instance.", "error", err)
	}
}

func (e *Engine) mergeState(state map[string]any) map[string]any {
	if len(e.cfg.DefaultState) == 0 && len(state) == 0 {
		return nil
	}
	out := maps.Clone(e.cfg.DefaultState)
	if out == nil {
		out = make(map[string]any, len(state))
	}
	maps.Copy(out, state)
	return out
}

// detach keeps values but drops the caller's cancellation for tasks that
// outlive the call that started them. Those are stopped through Cancel.
func detach(ctx context.Context, mode taskmode.Mode) context.Context {
	if mode == taskmode.Async {
		return context.WithoutCancel(ctx)
	}
	return ctx
}
