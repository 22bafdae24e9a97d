package rest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/description"
)

// Job is a job on the REST manager.
type Job struct {
	svc  *Service
	id   string
	desc description.Description

	mu       sync.Mutex
	state    adaptor.JobState
	exitCode *int
}

func (j *Job) ID() string                           { return j.id }
func (j *Job) Description() description.Description { return j.desc }

func (j *Job) ExitCode() (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.exitCode == nil {
		return 0, false
	}
	return *j.exitCode, true
}

func (j *Job) update(r jobResponse) adaptor.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	if r.State != "" {
		j.state = adaptor.ParseJobState(r.State)
	}
	if r.ExitCode != nil {
		code := *r.ExitCode
		j.exitCode = &code
	}
	return j.state
}

func (j *Job) cached() adaptor.JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) State(ctx context.Context) (adaptor.JobState, error) {
	if st := j.cached(); st.IsFinal() {
		return st, nil
	}
	var resp jobResponse
	if err := j.svc.c.do(ctx, http.MethodGet, jobPath(j.id, ""), nil, &resp); err != nil {
		return j.cached(), err
	}
	return j.update(resp), nil
}

func (j *Job) Run(ctx context.Context) error {
	if st := j.cached(); st != adaptor.StateNew {
		return fmt.Errorf("rest: job %s is %s, not New", j.id, st)
	}
	var resp jobResponse
	if err := j.svc.c.do(ctx, http.MethodPost, jobPath(j.id, "/run"), nil, &resp); err != nil {
		return err
	}
	if j.update(resp) == adaptor.StateNew {
		j.mu.Lock()
		j.state = adaptor.StatePending
		j.mu.Unlock()
	}
	return nil
}

// Wait polls until the job is final or ctx is done.
func (j *Job) Wait(ctx context.Context) (adaptor.JobState, error) {
	ticker := time.NewTicker(j.svc.poll)
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
	var resp jobResponse
	if err := j.svc.c.do(ctx, http.MethodPost, jobPath(j.id, "/cancel"), nil, &resp); err != nil {
		return err
	}
	if !j.update(resp).IsFinal() {
		j.mu.Lock()
		j.state = adaptor.StateCanceled
		j.mu.Unlock()
	}
	return nil
}
