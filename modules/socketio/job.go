package socketio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/zclconf/go-cty/cty"
)

// Job is a remote job. Its state is cached and refreshed on demand.
type Job struct {
	svc  *Service
	id   string
	desc description.Description

	mu       sync.Mutex
	state    adaptor.JobState
	exitCode int
	hasExit  bool
}

func newJob(svc *Service, id string, desc description.Description) *Job {
	return &Job{svc: svc, id: id, desc: desc, state: adaptor.StateNew}
}

func (j *Job) ID() string                           { return j.id }
func (j *Job) Description() description.Description { return j.desc }

func (j *Job) ExitCode() (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode, j.hasExit
}

// update applies the state and exit_code fields of a response.
func (j *Job) update(resp cty.Value) adaptor.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	if name := attrString(resp, "state"); name != "" {
		j.state = adaptor.ParseJobState(name)
	}
	if code, ok := attrInt(resp, "exit_code"); ok {
		j.exitCode, j.hasExit = code, true
	}
	return j.state
}

func (j *Job) cached() adaptor.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// State asks the remote side unless the job is already final.
func (j *Job) State(ctx context.Context) (adaptor.JobState, error) {
	if st := j.cached(); st.IsFinal() {
		return st, nil
	}
	resp, err := j.svc.c.call(ctx, "state", map[string]any{"job_id": j.id})
	if err != nil {
		return j.cached(), err
	}
	return j.update(resp), nil
}

func (j *Job) Run(ctx context.Context) error {
	if st := j.cached(); st != adaptor.StateNew {
		return fmt.Errorf("socketio: job %s is %s, not New", j.id, st)
	}
	resp, err := j.svc.c.call(ctx, "run", map[string]any{"job_id": j.id})
	if err != nil {
		return err
	}
	if j.update(resp) == adaptor.StateNew {
		j.mu.Lock()
		j.state = adaptor.StatePending
		j.mu.Unlock()
	}
	return nil
}

// Wait polls the remote state until it is final or ctx is done.
func (j *Job) Wait(ctx context.Context) (adaptor.JobState, error) {
	ticker := time.NewTicker(j.svc.opts.PollInterval)
	defer ticker.Stop()
	for {
		st, err := j.State(ctx)
		if err != nil || st.IsFinal() {
			return st, err
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (j *Job) Cancel(ctx context.Context) error {
	resp, err := j.svc.c.call(ctx, "cancel", map[string]any{"job_id": j.id})
	if err != nil {
		return err
	}
	if !j.update(resp).IsFinal() {
		j.mu.Lock()
		j.state = adaptor.StateCanceled
		j.mu.Unlock()
	}
	return nil
}
