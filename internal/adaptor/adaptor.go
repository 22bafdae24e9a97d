// Package adaptor defines the contract between the dispatch engine and the
// backends that do the actual work.
//
// An adaptor publishes a Descriptor saying which kinds of object it
// implements, which URL schemes it understands and which task modes it can
// honour. The engine only ever talks to adaptors through this package.
package adaptor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/session"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

var (
	// ErrAsyncUnsupported is returned by the async constructor of adaptors
	// that only construct synchronously.
	ErrAsyncUnsupported = errors.New("adaptor: asynchronous construction not supported")
	// ErrJobNotFound is returned by GetJob for unknown job ids.
	ErrJobNotFound = errors.New("adaptor: job not found")
)

// Kind names a facade type an adaptor can implement.
type Kind string

// KindJobService is the only facade kind the engine currently serves.
const KindJobService Kind = "job.Service"

const (
	// AnyScheme marks an adaptor that accepts URLs without a scheme.
	AnyScheme = "*"
	// AnyAdaptor means the caller expressed no adaptor preference.
	AnyAdaptor = ""
)

// Descriptor is the capability record an adaptor registers with.
type Descriptor struct {
	Name    string
	Kinds   []Kind
	Schemes []string
	Modes   taskmode.Support
}

// Supports reports whether d declares both kind and scheme.
func (d Descriptor) Supports(kind Kind, scheme string) bool {
	return slices.Contains(d.Kinds, kind) && slices.Contains(d.Schemes, strings.ToLower(scheme))
}

// Normalize returns a copy with lower-cased schemes and duplicates removed.
// Declaration order is kept.
func (d Descriptor) Normalize() Descriptor {
	out := Descriptor{Name: strings.TrimSpace(d.Name), Modes: d.Modes}
	for _, k := range d.Kinds {
		if !slices.Contains(out.Kinds, k) {
			out.Kinds = append(out.Kinds, k)
		}
	}
	for _, s := range d.Schemes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out.Schemes, s) {
			out.Schemes = append(out.Schemes, s)
		}
	}
	return out
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(kinds=%v schemes=%v modes=%s)", d.Name, d.Kinds, d.Schemes, d.Modes)
}

// Args is everything a constructor receives.
type Args struct {
	URL     *rmurl.URL
	Session *session.Session
	// State carries extra construction parameters. Adaptors ignore keys they
	// do not know.
	State map[string]any
}

// Adaptor is a registered backend.
type Adaptor interface {
	Descriptor() Descriptor
	// NewJobService constructs an instance on the calling goroutine.
	NewJobService(ctx context.Context, args Args) (JobService, error)
	// NewJobServiceTask returns a task in the Created state whose function
	// performs the construction. It must not do the work itself.
	NewJobServiceTask(ctx context.Context, args Args) (*task.Task[JobService], error)
}

// SyncOnly can be embedded by adaptors without an async constructor.
type SyncOnly struct{}

// NewJobServiceTask always fails with ErrAsyncUnsupported.
func (SyncOnly) NewJobServiceTask(context.Context, Args) (*task.Task[JobService], error) {
	return nil, ErrAsyncUnsupported
}

// Defer wraps a synchronous constructor into a not yet started task.
func Defer(args Args, ctor func(context.Context, Args) (JobService, error)) *task.Task[JobService] {
	return task.New(func(ctx context.Context) (JobService, error) {
		return ctor(ctx, args)
	})
}
