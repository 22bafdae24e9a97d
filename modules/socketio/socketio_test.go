package socketio

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/rmurl"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// fakeManager answers requests the way a remote job manager would.
type fakeManager struct {
	mu     sync.Mutex
	c      *client
	jobs   map[string]string
	nextID int
	ops    []string
	silent bool
}

func newFakeManager(timeout time.Duration) *fakeManager {
	m := &fakeManager{jobs: map[string]string{}}
	m.c = newClient(nil, slog.New(slog.DiscardHandler), timeout)
	m.c.emit = m.handle
	return m
}

func (m *fakeManager) service() *Service {
	o := defaultOptions()
	o.PollInterval = time.Millisecond
	return &Service{url: rmurl.MustParse("sio://manager:8080"), opts: o, c: m.c, jobs: map[string]*Job{}}
}

func (m *fakeManager) handle(_ string, args ...any) {
	req := args[0].(map[string]any)
	id := req["request_id"].(string)
	op := req["op"].(string)

	m.mu.Lock()
	m.ops = append(m.ops, op)
	if m.silent {
		m.mu.Unlock()
		return
	}
	resp := map[string]any{"request_id": id}
	jobID, _ := req["job_id"].(string)
	switch op {
	case "create":
		m.nextID++
		jobID = "remote-" + string(rune('0'+m.nextID))
		m.jobs[jobID] = "New"
		resp["job_id"] = jobID
		resp["state"] = "New"
	case "list":
		ids := make([]any, 0, len(m.jobs))
		for k := range m.jobs {
			ids = append(ids, k)
		}
		resp["ids"] = ids
	case "run", "state", "cancel":
		st, ok := m.jobs[jobID]
		if !ok {
			resp["error"] = "no such job " + jobID
			resp["code"] = "not_found"
			break
		}
		switch {
		case op == "run":
			st = "Running"
		case op == "cancel":
			st = "Canceled"
		case st == "Running":
			st = "Done"
			resp["exit_code"] = float64(0)
		}
		m.jobs[jobID] = st
		resp["state"] = st
	}
	m.mu.Unlock()

	// Answer from another goroutine like the socket's event loop does.
	go m.c.deliver(resp)
}

func TestAdaptor_Descriptor(t *testing.T) {
	d := Adaptor{}.Descriptor()
	assert.Equal(t, Name, d.Name)
	assert.True(t, d.Supports(adaptor.KindJobService, "SIO"))
	assert.True(t, d.Supports(adaptor.KindJobService, "sios"))
	assert.False(t, d.Supports(adaptor.KindJobService, "http"))
	assert.Equal(t, taskmode.SupportBoth, d.Modes)
}

func TestBaseURL(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
		wantErr  bool
	}{
		{raw: "sio://host:3000", expected: "http://host:3000"},
		{raw: "sios://host", expected: "https://host"},
		{raw: "ssh://host", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := baseURL(rmurl.MustParse(tc.raw))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseOptions(t *testing.T) {
	o, err := parseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultOptions(), o)

	o, err = parseOptions(map[string]any{
		"connect_timeout":      "2s",
		"request_timeout":      3,
		"poll_interval":        0.5,
		"namespace":            "/jobs",
		"insecure_skip_verify": true,
		"unrelated":            "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, o.ConnectTimeout)
	assert.Equal(t, 3*time.Second, o.RequestTimeout)
	assert.Equal(t, 500*time.Millisecond, o.PollInterval)
	assert.Equal(t, "/jobs", o.Namespace)
	assert.True(t, o.InsecureSkipVerify)

	for _, bad := range []map[string]any{
		{"connect_timeout": "soon"},
		{"request_timeout": -1},
		{"poll_interval": []int{1}},
		{"namespace": 5},
		{"insecure_skip_verify": "yes"},
	} {
		_, err := parseOptions(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestInterfaceToCtyValue(t *testing.T) {
	v, err := interfaceToCtyValue(map[string]any{
		"s":    "x",
		"n":    float64(3),
		"b":    true,
		"list": []any{"a", "b"},
		"nil":  nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "x", attrString(v, "s"))
	n, ok := attrInt(v, "n")
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, cty.True, v.GetAttr("b"))

	ids, err := attrStrings(v, "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, ok = attr(v, "nil")
	assert.False(t, ok)
	assert.Equal(t, "", attrString(v, "missing"))
	_, err = attrStrings(v, "s")
	assert.Error(t, err)

	_, err = interfaceToCtyValue(struct{}{})
	assert.Error(t, err)
}

func TestService_JobLifecycle(t *testing.T) {
	// --- Arrange ---
	m := newFakeManager(time.Second)
	svc := m.service()
	ctx := context.Background()
	desc := description.MustBuild(description.Draft{Executable: "/bin/date"})

	// --- Act ---
	j, err := svc.CreateJob(ctx, desc)
	require.NoError(t, err)
	require.NoError(t, j.Run(ctx))
	st, err := j.Wait(ctx)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, adaptor.StateDone, st)
	code, ok := j.ExitCode()
	assert.True(t, ok)
	assert.Equal(t, 0, code)
	assert.Equal(t, "/bin/date", j.Description().Executable())

	ids, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{j.ID()}, ids)

	same, err := svc.GetJob(ctx, j.ID())
	require.NoError(t, err)
	assert.Same(t, j, same)

	u, err := svc.URL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sio://manager:8080", u.String())

	require.Error(t, j.Run(ctx), "a finished job cannot run again")
}

func TestService_Cancel(t *testing.T) {
	m := newFakeManager(time.Second)
	svc := m.service()
	ctx := context.Background()

	j, err := svc.CreateJob(ctx, description.MustBuild(description.Draft{Executable: "/bin/sleep"}))
	require.NoError(t, err)
	require.NoError(t, j.Run(ctx))
	require.NoError(t, j.Cancel(ctx))

	st, err := j.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, adaptor.StateCanceled, st)
}

func TestService_GetJobNotFound(t *testing.T) {
	m := newFakeManager(time.Second)
	svc := m.service()

	_, err := svc.GetJob(context.Background(), "nope")
	require.ErrorIs(t, err, adaptor.ErrJobNotFound)
}

func TestClient_CallTimesOut(t *testing.T) {
	m := newFakeManager(20 * time.Millisecond)
	m.silent = true

	_, err := m.c.call(context.Background(), "list", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	assert.Empty(t, m.c.pending, "timed out calls must not leak")
}

func TestClient_DeliverIgnoresStrayResponses(t *testing.T) {
	m := newFakeManager(time.Second)

	assert.NotPanics(t, func() {
		m.c.deliver()
		m.c.deliver("not an object")
		m.c.deliver(map[string]any{"job_id": "x"})
		m.c.deliver(map[string]any{"request_id": "unknown"})
	})
}

func TestClient_CallAfterClose(t *testing.T) {
	m := newFakeManager(time.Second)
	m.c.close()
	m.c.close()

	_, err := m.c.call(context.Background(), "list", nil)
	require.Error(t, err)
	assert.Empty(t, m.ops)
}

func TestNewJobService_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Adaptor{}.NewJobService(ctx, adaptor.Args{URL: rmurl.MustParse("sio://")})
	require.Error(t, err, "a URL without host is rejected")

	_, err = Adaptor{}.NewJobService(ctx, adaptor.Args{
		URL:   rmurl.MustParse("sio://manager"),
		State: map[string]any{"connect_timeout": "never"},
	})
	require.Error(t, err)
}
