package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// FakeAdaptor is a configurable adaptor.Adaptor that records how it was used.
type FakeAdaptor struct {
	Desc adaptor.Descriptor

	// Gate, when non-nil, blocks every construction until it is closed or
	// the construction context ends.
	Gate chan struct{}
	// Entered, when non-nil, receives one value as each construction begins.
	Entered chan struct{}
	// IgnoreCancel makes the Gate wait deaf to the construction context.
	IgnoreCancel bool
	// Err is returned by every construction.
	Err error
	// Async makes constructed services implement adaptor.AsyncJobService.
	Async bool

	syncCalls     atomic.Int32
	asyncCalls    atomic.Int32
	constructions atomic.Int32

	mu       sync.Mutex
	services []*FakeService
	args     []adaptor.Args
}

// NewFakeAdaptor returns a job service adaptor for the given schemes that
// supports every task mode.
func NewFakeAdaptor(name string, schemes ...string) *FakeAdaptor {
	return &FakeAdaptor{Desc: adaptor.Descriptor{
		Name:    name,
		Kinds:   []adaptor.Kind{adaptor.KindJobService},
		Schemes: schemes,
		Modes:   taskmode.SupportBoth,
	}}
}

// WithModes sets the supported task modes and returns a.
func (a *FakeAdaptor) WithModes(s taskmode.Support) *FakeAdaptor {
	a.Desc.Modes = s
	return a
}

func (a *FakeAdaptor) Descriptor() adaptor.Descriptor { return a.Desc }

func (a *FakeAdaptor) NewJobService(ctx context.Context, args adaptor.Args) (adaptor.JobService, error) {
	a.syncCalls.Add(1)
	return a.construct(ctx, args)
}

func (a *FakeAdaptor) NewJobServiceTask(_ context.Context, args adaptor.Args) (*task.Task[adaptor.JobService], error) {
	a.asyncCalls.Add(1)
	return adaptor.Defer(args, a.construct), nil
}

func (a *FakeAdaptor) construct(ctx context.Context, args adaptor.Args) (adaptor.JobService, error) {
	a.constructions.Add(1)
	if a.Entered != nil {
		select {
		case a.Entered <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.Gate != nil {
		done := ctx.Done()
		if a.IgnoreCancel {
			done = nil
		}
		select {
		case <-a.Gate:
		case <-done:
			return nil, ctx.Err()
		}
	}
	if a.Err != nil {
		return nil, a.Err
	}

	svc := NewFakeService(args)
	a.mu.Lock()
	a.services = append(a.services, svc)
	a.args = append(a.args, args)
	a.mu.Unlock()
	if a.Async {
		return &FakeAsyncService{FakeService: svc}, nil
	}
	return svc, nil
}

// SyncCalls is the number of calls to the synchronous constructor.
func (a *FakeAdaptor) SyncCalls() int { return int(a.syncCalls.Load()) }

// AsyncCalls is the number of calls to the asynchronous entry point.
func (a *FakeAdaptor) AsyncCalls() int { return int(a.asyncCalls.Load()) }

// Constructions is the number of constructions that actually began.
func (a *FakeAdaptor) Constructions() int { return int(a.constructions.Load()) }

// Services returns the services built so far.
func (a *FakeAdaptor) Services() []*FakeService {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*FakeService, len(a.services))
	copy(out, a.services)
	return out
}

// LastArgs returns the arguments of the most recent successful construction.
func (a *FakeAdaptor) LastArgs() (adaptor.Args, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.args) == 0 {
		return adaptor.Args{}, false
	}
	return a.args[len(a.args)-1], true
}
