package registry_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
	"github.com/specialistvlad/sagagrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(entries []registry.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Descriptor.Name)
	}
	return out
}

func TestRegister_IndexesInRegistrationOrder(t *testing.T) {
	// --- Arrange ---
	r := registry.New()
	require.NoError(t, r.Register(testutil.NewFakeAdaptor("shell", "ssh", "fork")))
	require.NoError(t, r.Register(testutil.NewFakeAdaptor("other", "SSH")))

	// --- Act ---
	ssh := r.Lookup(adaptor.KindJobService, "ssh")
	fork := r.Lookup(adaptor.KindJobService, "fork")

	// --- Assert ---
	assert.Equal(t, []string{"shell", "other"}, names(ssh))
	assert.Equal(t, []string{"shell"}, names(fork))
	assert.Empty(t, r.Lookup(adaptor.KindJobService, "xyz"))
	assert.Empty(t, r.Lookup(adaptor.Kind("filesystem.Directory"), "ssh"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 0, ssh[0].Seq)
	assert.Equal(t, 1, ssh[1].Seq)
}

func TestRegister_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		adaptor adaptor.Adaptor
		want    error
	}{
		{name: "nil adaptor", adaptor: nil, want: registry.ErrInvalidDescriptor},
		{name: "empty name", adaptor: testutil.NewFakeAdaptor("  ", "ssh"), want: registry.ErrInvalidDescriptor},
		{name: "no schemes", adaptor: testutil.NewFakeAdaptor("x"), want: registry.ErrInvalidDescriptor},
		{name: "duplicate name", adaptor: testutil.NewFakeAdaptor("shell", "gsissh"), want: registry.ErrDuplicateRegistration},
		{name: "duplicate triple", adaptor: testutil.NewFakeAdaptor("shell", "ssh"), want: registry.ErrDuplicateRegistration},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := registry.New()
			r.MustRegister(testutil.NewFakeAdaptor("shell", "ssh"))

			err := r.Register(tc.adaptor)

			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, 1, r.Len(), "a failed registration must not change the registry")
			assert.Empty(t, r.Lookup(adaptor.KindJobService, "gsissh"))
		})
	}
}

func TestRegister_NoKinds(t *testing.T) {
	a := testutil.NewFakeAdaptor("x", "ssh")
	a.Desc.Kinds = nil
	assert.ErrorIs(t, registry.New().Register(a), registry.ErrInvalidDescriptor)
}

func TestMustRegister_Panics(t *testing.T) {
	r := registry.New()
	r.MustRegister(testutil.NewFakeAdaptor("shell", "ssh"))
	assert.Panics(t, func() { r.MustRegister(testutil.NewFakeAdaptor("shell", "ssh")) })
}

func TestSeal(t *testing.T) {
	r := registry.New()
	r.MustRegister(testutil.NewFakeAdaptor("shell", "ssh"))
	assert.False(t, r.Sealed())

	r.Seal()
	r.Seal()

	assert.True(t, r.Sealed())
	assert.ErrorIs(t, r.Register(testutil.NewFakeAdaptor("late", "fork")), registry.ErrRegistrySealed)
	assert.Equal(t, []string{"shell"}, names(r.Lookup(adaptor.KindJobService, "ssh")), "sealing keeps the index")
}

func TestLookupExplicit(t *testing.T) {
	r := registry.New()
	r.MustRegister(testutil.NewFakeAdaptor("a", "ssh"))
	r.MustRegister(testutil.NewFakeAdaptor("b", "ssh", "gsissh"))

	assert.Equal(t, []string{"b"}, names(r.LookupExplicit(adaptor.KindJobService, "ssh", "b")))
	assert.Empty(t, r.LookupExplicit(adaptor.KindJobService, "gsissh", "a"))
	assert.Empty(t, r.LookupExplicit(adaptor.KindJobService, "ssh", "c"))
}

func TestHasWildcardAndGet(t *testing.T) {
	r := registry.New()
	r.MustRegister(testutil.NewFakeAdaptor("ssh", "ssh"))
	assert.False(t, r.HasWildcard(adaptor.KindJobService))

	r.MustRegister(testutil.NewFakeAdaptor("local", "fork", adaptor.AnyScheme))
	assert.True(t, r.HasWildcard(adaptor.KindJobService))

	e, ok := r.Get("local")
	require.True(t, ok)
	assert.Equal(t, []string{"fork", "*"}, e.Descriptor.Schemes)

	_, ok = r.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, []string{"ssh", "local"}, names(r.Entries()))
}

func TestLookup_ReturnsCopies(t *testing.T) {
	r := registry.New()
	r.MustRegister(testutil.NewFakeAdaptor("a", "ssh"))

	got := r.Lookup(adaptor.KindJobService, "ssh")
	got[0].Descriptor.Name = "mutated"

	assert.Equal(t, []string{"a"}, names(r.Lookup(adaptor.KindJobService, "ssh")))
}

func TestRegistry_ConcurrentReadersAndWriter(t *testing.T) {
	r := registry.New()
	const writers = 50

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range writers {
			r.MustRegister(testutil.NewFakeAdaptor(fmt.Sprintf("a%02d", i), "ssh"))
		}
	}()

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				entries := r.Lookup(adaptor.KindJobService, "ssh")
				for i, e := range entries {
					// Every snapshot is a prefix of the final order.
					assert.Equal(t, fmt.Sprintf("a%02d", i), e.Descriptor.Name)
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Lookup(adaptor.KindJobService, "ssh"), writers)
}

func TestLoad_RegistersModulesAndSeals(t *testing.T) {
	r := registry.New()
	mods := testutil.Modules(testutil.NewFakeAdaptor("a", "ssh"), testutil.NewFakeAdaptor("b", "fork"))

	require.NoError(t, r.Load(context.Background(), mods...))

	assert.True(t, r.Sealed())
	assert.Equal(t, []string{"a", "b"}, names(r.Entries()))
}

func TestLoad_LogsThroughContextLogger(t *testing.T) {
	logs := &testutil.SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)
	r := registry.New()

	require.NoError(t, r.Load(ctx, testutil.Modules(testutil.NewFakeAdaptor("a", "ssh"), testutil.NewFakeAdaptor("b", "fork"))...))

	assert.Contains(t, logs.String(), `msg="Registered adaptor." module=*testutil.SimpleModule adaptor=a`)
	assert.Contains(t, logs.String(), "adaptor=b")
}

func TestLoad_PropagatesModuleErrors(t *testing.T) {
	r := registry.New()
	mods := testutil.Modules(testutil.NewFakeAdaptor("a", "ssh"), testutil.NewFakeAdaptor("a", "fork"))

	err := r.Load(context.Background(), mods...)

	require.ErrorIs(t, err, registry.ErrDuplicateRegistration)
	assert.False(t, r.Sealed())
}

func TestValidate(t *testing.T) {
	r := registry.New()
	r.MustRegister(testutil.NewFakeAdaptor("a", "ssh"))
	r.MustRegister(testutil.NewFakeAdaptor("b", "ssh"))
	require.NoError(t, r.Validate(context.Background()))

	r.MustRegister(testutil.NewFakeAdaptor("none", "fork").WithModes(taskmode.Support(0)))
	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adaptor 'none' declares no task modes")
}
