// Package resolver picks the adaptor that serves a request.
//
// Resolution is a pure function of the registry snapshot and the request:
//
//  1. A URL without scheme is only resolvable when some adaptor registered
//     the wildcard scheme for the kind.
//  2. An explicit hint restricts the candidates to that adaptor.
//  3. The first candidate in registration order wins.
//  4. The winner must support the requested task mode.
//
// Resolution never constructs anything and never mutates the registry.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

var (
	// ErrNoAdaptorForScheme is returned when nothing serves the scheme.
	ErrNoAdaptorForScheme = errors.New("resolver: no adaptor for scheme")
	// ErrAdaptorNotFound is returned when the hinted adaptor does not serve
	// the kind and scheme.
	ErrAdaptorNotFound = errors.New("resolver: adaptor not found")
	// ErrUnsupportedTaskMode is returned when the winner cannot honour the mode.
	ErrUnsupportedTaskMode = errors.New("resolver: unsupported task mode")
)

// Error describes a failed resolution. It unwraps to one of the sentinels above.
type Error struct {
	Kind    adaptor.Kind
	Scheme  string
	Hint    string
	Mode    taskmode.Mode
	Adaptor string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	fmt.Fprintf(&b, ": kind=%s scheme=%q", e.Kind, e.Scheme)
	if e.Hint != "" {
		fmt.Fprintf(&b, " adaptor=%q", e.Hint)
	}
	if errors.Is(e.Err, ErrUnsupportedTaskMode) {
		fmt.Fprintf(&b, " mode=%s winner=%s", e.Mode, e.Adaptor)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Request is what the resolver needs to know about a call.
type Request struct {
	Kind adaptor.Kind
	URL  *rmurl.URL
	Mode taskmode.Mode
	// Hint names a specific adaptor; adaptor.AnyAdaptor means no preference.
	Hint string
}

// Resolver resolves requests against one registry.
type Resolver struct {
	reg *registry.Registry
}

// New returns a resolver reading reg.
func New(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve returns the entry that serves req.
func (r *Resolver) Resolve(req Request) (registry.Entry, error) {
	scheme := ""
	if !req.URL.IsZero() {
		scheme = req.URL.Scheme()
	}
	fail := func(err error) (registry.Entry, error) {
		return registry.Entry{}, &Error{Kind: req.Kind, Scheme: scheme, Hint: req.Hint, Mode: req.Mode, Err: err}
	}

	key := scheme
	if key == "" {
		if !r.reg.HasWildcard(req.Kind) {
			return fail(ErrNoAdaptorForScheme)
		}
		key = adaptor.AnyScheme
	}

	var candidates []registry.Entry
	if req.Hint != adaptor.AnyAdaptor {
		candidates = r.reg.LookupExplicit(req.Kind, key, req.Hint)
		if len(candidates) == 0 {
			return fail(ErrAdaptorNotFound)
		}
	} else {
		candidates = r.reg.Lookup(req.Kind, key)
		if len(candidates) == 0 {
			return fail(ErrNoAdaptorForScheme)
		}
	}

	winner := candidates[0]
	if !winner.Descriptor.Modes.Allows(req.Mode) {
		return registry.Entry{}, &Error{
			Kind: req.Kind, Scheme: scheme, Hint: req.Hint, Mode: req.Mode,
			Adaptor: winner.Descriptor.Name, Err: ErrUnsupportedTaskMode,
		}
	}
	return winner, nil
}
