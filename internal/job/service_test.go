package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/engine"
	"github.com/specialistvlad/sagagrid/internal/job"
	"github.com/specialistvlad/sagagrid/internal/resolver"
	"github.com/specialistvlad/sagagrid/internal/session"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
	"github.com/specialistvlad/sagagrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, adaptors ...adaptor.Adaptor) *engine.Engine {
	t.Helper()
	eng, err := engine.New(context.Background(), engine.Config{}, testutil.Modules(adaptors...)...)
	require.NoError(t, err)
	return eng
}

func TestNewService_BindsAndForwards(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	fake := testutil.NewFakeAdaptor("shell", "ssh")
	eng := newEngine(t, fake)

	// --- Act ---
	svc, err := job.NewService(ctx, eng, "ssh://remote.host.net", session.New())
	require.NoError(t, err)

	j, err := svc.CreateJob(ctx, description.Draft{Executable: "/bin/date", Environment: map[string]any{"X": 5}})
	require.NoError(t, err)
	ids, err := svc.List(ctx)
	require.NoError(t, err)
	jobs, err := svc.Jobs(ctx)
	require.NoError(t, err)
	u, err := svc.URL(ctx)
	require.NoError(t, err)
	again, err := svc.GetJob(ctx, j.ID())
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx))

	// --- Assert ---
	assert.Equal(t, "shell", svc.Adaptor())
	assert.Equal(t, map[string]string{"X": "5"}, j.Description().Environment())
	assert.Equal(t, []string{j.ID()}, ids)
	assert.Equal(t, ids, jobs)
	assert.Equal(t, "ssh://remote.host.net", u.String())
	assert.Equal(t, j.ID(), again.ID())
	assert.True(t, fake.Services()[0].Closed())
	assert.Equal(t, 1, fake.SyncCalls())
}

func TestNewService_DefaultSession(t *testing.T) {
	fake := testutil.NewFakeAdaptor("shell", "ssh")
	svc, err := job.NewService(context.Background(), newEngine(t, fake), "ssh://h", nil)
	require.NoError(t, err)

	args, _ := fake.LastArgs()
	assert.Same(t, svc.Session(), args.Session)
	assert.NotNil(t, args.Session)
}

func TestCreate_UnknownSchemeFailsBeforeConstruction(t *testing.T) {
	fake := testutil.NewFakeAdaptor("shell", "ssh")
	eng := newEngine(t, fake)

	svc, err := job.Create(context.Background(), eng, "xyz://h", nil, taskmode.Async)

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, resolver.ErrNoAdaptorForScheme)
	assert.Zero(t, fake.SyncCalls()+fake.AsyncCalls())
}

func TestCreate_InvalidURL(t *testing.T) {
	_, err := job.Create(context.Background(), newEngine(t, testutil.NewFakeAdaptor("a", "ssh")), "ssh://%zz", nil, taskmode.NoTask)
	assert.Error(t, err)
}

func TestCreate_WithAdaptorAndState(t *testing.T) {
	first := testutil.NewFakeAdaptor("first", "ssh")
	second := testutil.NewFakeAdaptor("second", "ssh")
	eng := newEngine(t, first, second)

	svc, err := job.NewService(context.Background(), eng, "ssh://h", nil,
		job.WithAdaptor("second"), job.WithState(map[string]any{"queue": "long"}))
	require.NoError(t, err)

	assert.Equal(t, "second", svc.Adaptor())
	assert.Zero(t, first.SyncCalls())
	args, ok := second.LastArgs()
	require.True(t, ok)
	assert.Equal(t, "long", args.State["queue"])

	_, err = job.NewService(context.Background(), eng, "ssh://h", nil, job.WithAdaptor("third"))
	assert.ErrorIs(t, err, resolver.ErrAdaptorNotFound)
}

func TestCreateJob_InvalidDescriptionSkipsAdaptor(t *testing.T) {
	fake := testutil.NewFakeAdaptor("shell", "ssh")
	svc, err := job.NewService(context.Background(), newEngine(t, fake), "ssh://h", nil)
	require.NoError(t, err)

	_, err = svc.CreateJob(context.Background(), description.Draft{Arguments: []string{"-x"}})
	assert.ErrorIs(t, err, description.ErrInvalidJobDescription)

	tk := svc.CreateJobTask(context.Background(), description.Draft{}, taskmode.Async)
	assert.Equal(t, task.Failed, tk.State())
	assert.ErrorIs(t, tk.Err(), description.ErrInvalidJobDescription)

	assert.Zero(t, fake.Services()[0].Calls("CreateJob"))
	assert.Zero(t, fake.Services()[0].Calls("CreateJobTask"))
}

func TestRunJob_NotImplemented(t *testing.T) {
	fake := testutil.NewFakeAdaptor("shell", "ssh")
	svc, err := job.NewService(context.Background(), newEngine(t, fake), "ssh://h", nil)
	require.NoError(t, err)

	j, err := svc.RunJob(context.Background(), "/bin/date", "remote.host.net")
	assert.Nil(t, j)
	assert.ErrorIs(t, err, job.ErrNotImplemented)

	tk := svc.RunJobTask(context.Background(), "/bin/date", "", taskmode.Task)
	assert.Equal(t, task.Failed, tk.State())
	assert.ErrorIs(t, tk.Err(), job.ErrNotImplemented)
}

func TestCreate_AsyncBindingLifecycle(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	fake := testutil.NewFakeAdaptor("slow", "ssh")
	fake.Gate = make(chan struct{})
	fake.Entered = make(chan struct{}, 1)
	eng := newEngine(t, fake)

	// --- Act: the service exists before its adaptor does ---
	svc, err := job.Create(ctx, eng, "ssh://h", nil, taskmode.Task)
	require.NoError(t, err)
	assert.Equal(t, task.Created, svc.Binding().Task().State())

	listed := make(chan []string, 1)
	go func() {
		ids, err := svc.List(ctx)
		assert.NoError(t, err)
		listed <- ids
	}()

	<-fake.Entered
	assert.Equal(t, task.Running, svc.Binding().Task().State())
	select {
	case <-listed:
		t.Fatal("List returned before construction finished")
	case <-time.After(30 * time.Millisecond):
	}

	close(fake.Gate)

	// --- Assert ---
	select {
	case ids := <-listed:
		assert.Empty(t, ids)
	case <-time.After(2 * time.Second):
		t.Fatal("List did not return after construction finished")
	}
	assert.Equal(t, task.Completed, svc.Binding().Task().State())
	assert.Len(t, fake.Services(), 1)
}

func TestCreate_AsyncMethodsWaitOnCancelledBinding(t *testing.T) {
	fake := testutil.NewFakeAdaptor("slow", "ssh")
	fake.Gate = make(chan struct{})
	fake.Entered = make(chan struct{}, 1)

	svc, err := job.Create(context.Background(), newEngine(t, fake), "ssh://h", nil, taskmode.Async)
	require.NoError(t, err)
	<-fake.Entered

	require.True(t, svc.Binding().Cancel())

	_, err = svc.List(context.Background())
	assert.ErrorIs(t, err, task.ErrCancelled)
	_, err = svc.CreateJob(context.Background(), description.Draft{Executable: "/bin/true"})
	assert.ErrorIs(t, err, task.ErrCancelled)
}

func TestService_WaitHonoursCallerContext(t *testing.T) {
	fake := testutil.NewFakeAdaptor("slow", "ssh")
	fake.Gate = make(chan struct{})
	defer close(fake.Gate)

	svc, err := job.Create(context.Background(), newEngine(t, fake), "ssh://h", nil, taskmode.Async)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = svc.URL(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, task.Running, svc.Binding().Task().State(), "a caller timeout does not cancel the construction")
}

func TestTaskVariants_WrapSyncInstance(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	fake := testutil.NewFakeAdaptor("shell", "ssh")
	svc, err := job.NewService(ctx, newEngine(t, fake), "ssh://h", nil)
	require.NoError(t, err)

	// --- Act ---
	created := svc.CreateJobTask(ctx, description.Draft{Executable: "/bin/date"}, taskmode.Sync)
	listed := svc.ListTask(ctx, taskmode.Async)
	deferred := svc.URLTask(ctx, taskmode.Task)

	// --- Assert ---
	assert.Equal(t, task.Completed, created.State())
	j, err := created.Wait(ctx)
	require.NoError(t, err)

	_, err = listed.Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, task.Created, deferred.State())
	require.NoError(t, deferred.Start(ctx))
	u, err := deferred.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ssh://h", u.String())

	got, err := svc.GetJobTask(ctx, j.ID(), taskmode.NoTask).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, j.ID(), got.ID())

	_, err = svc.GetJobTask(ctx, "missing", taskmode.Sync).Wait(ctx)
	assert.ErrorIs(t, err, adaptor.ErrJobNotFound)
	assert.Equal(t, 2, fake.Services()[0].Calls("GetJob"))
}

func TestTaskVariants_ForwardToNativeAsync(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAdaptor("native", "ssh")
	fake.Async = true
	svc, err := job.NewService(ctx, newEngine(t, fake), "ssh://h", nil)
	require.NoError(t, err)

	_, err = svc.CreateJobTask(ctx, description.Draft{Executable: "/bin/date"}, taskmode.Sync).Wait(ctx)
	require.NoError(t, err)
	_, err = svc.ListTask(ctx, taskmode.Async).Wait(ctx)
	require.NoError(t, err)

	fs := fake.Services()[0]
	assert.Equal(t, 1, fs.Calls("CreateJobTask"))
	assert.Equal(t, 1, fs.Calls("ListTask"))
}

func TestTaskVariants_PendingBindingUsesNativeAfterConstruction(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeAdaptor("native", "ssh")
	fake.Async = true
	fake.Gate = make(chan struct{})

	svc, err := job.Create(ctx, newEngine(t, fake), "ssh://h", nil, taskmode.Async)
	require.NoError(t, err)

	listed := svc.ListTask(ctx, taskmode.Async)
	assert.Equal(t, task.Running, listed.State())

	close(fake.Gate)
	_, err = listed.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Services()[0].Calls("ListTask"))
}
