package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
)

var (
	// ErrDuplicateRegistration is returned when an adaptor name is registered
	// twice. Names are unique, so this also covers (name, kind, scheme) triples.
	ErrDuplicateRegistration = errors.New("registry: duplicate registration")
	// ErrRegistrySealed is returned when registering into a sealed registry.
	ErrRegistrySealed = errors.New("registry: registry is sealed")
	// ErrInvalidDescriptor is returned for descriptors without name, kinds or schemes.
	ErrInvalidDescriptor = errors.New("registry: invalid descriptor")
)

// Module is implemented by packages that contribute adaptors.
type Module interface {
	Register(r *Registry) error
}

// Entry is one registered adaptor together with its normalized descriptor.
type Entry struct {
	Descriptor adaptor.Descriptor
	Adaptor    adaptor.Adaptor
	// Seq is the registration order, starting at zero.
	Seq int
}

type indexKey struct {
	kind   adaptor.Kind
	scheme string
}

// snapshot is never modified after it is published.
type snapshot struct {
	entries []*Entry
	byName  map[string]*Entry
	index   map[indexKey][]*Entry
	sealed  bool
}

// Registry is safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// New creates an empty, unsealed registry.
func New() *Registry {
	r := &Registry{}
	r.snap.Store(&snapshot{
		byName: map[string]*Entry{},
		index:  map[indexKey][]*Entry{},
	})
	return r
}

// Register adds a. On error nothing is registered.
func (r *Registry) Register(a adaptor.Adaptor) error {
	if a == nil {
		return fmt.Errorf("%w: nil adaptor", ErrInvalidDescriptor)
	}
	desc := a.Descriptor().Normalize()
	if desc.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if len(desc.Kinds) == 0 || len(desc.Schemes) == 0 {
		return fmt.Errorf("%w: %s declares no kinds or no schemes", ErrInvalidDescriptor, desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.snap.Load()
	if cur.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrRegistrySealed, desc.Name)
	}
	if _, exists := cur.byName[desc.Name]; exists {
		return fmt.Errorf("%w: adaptor %q already registered", ErrDuplicateRegistration, desc.Name)
	}

	e := &Entry{Descriptor: desc, Adaptor: a, Seq: len(cur.entries)}
	next := cur.clone()
	next.entries = append(next.entries, e)
	next.byName[desc.Name] = e
	for _, k := range desc.Kinds {
		for _, s := range desc.Schemes {
			key := indexKey{kind: k, scheme: s}
			next.index[key] = append(next.index[key], e)
		}
	}
	r.snap.Store(next)

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(a adaptor.Adaptor) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Seal makes the registry read-only. Sealing twice is a no-op.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.snap.Load()
	if cur.sealed {
		return
	}
	next := cur.clone()
	next.sealed = true
	r.snap.Store(next)
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	return r.snap.Load().sealed
}

// Lookup returns the entries registered for (kind, scheme), first
// registered first. The scheme is matched as is; use adaptor.AnyScheme for
// scheme-less URLs.
func (r *Registry) Lookup(kind adaptor.Kind, scheme string) []Entry {
	return copyEntries(r.snap.Load().index[indexKey{kind: kind, scheme: scheme}], "")
}

// LookupExplicit is Lookup restricted to the adaptor called name.
func (r *Registry) LookupExplicit(kind adaptor.Kind, scheme, name string) []Entry {
	return copyEntries(r.snap.Load().index[indexKey{kind: kind, scheme: scheme}], name)
}

// HasWildcard reports whether any adaptor of kind accepts scheme-less URLs.
func (r *Registry) HasWildcard(kind adaptor.Kind) bool {
	return len(r.snap.Load().index[indexKey{kind: kind, scheme: adaptor.AnyScheme}]) > 0
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (Entry, bool) {
	e, ok := r.snap.Load().byName[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []Entry {
	return copyEntries(r.snap.Load().entries, "")
}

// Len returns the number of registered adaptors.
func (r *Registry) Len() int {
	return len(r.snap.Load().entries)
}

func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		entries: slices.Clone(s.entries),
		byName:  make(map[string]*Entry, len(s.byName)+1),
		index:   make(map[indexKey][]*Entry, len(s.index)+1),
		sealed:  s.sealed,
	}
	for k, v := range s.byName {
		next.byName[k] = v
	}
	for k, v := range s.index {
		next.index[k] = slices.Clone(v)
	}
	return next
}

func copyEntries(src []*Entry, name string) []Entry {
	out := make([]Entry, 0, len(src))
	for _, e := range src {
		if name != "" && e.Descriptor.Name != name {
			continue
		}
		out = append(out, *e)
	}
	return out
}
