package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/description"
)

// Job is one local process.
type Job struct {
	id   string
	desc description.Description
	opts options

	mu       sync.Mutex
	state    adaptor.JobState
	exitCode int
	hasExit  bool
	err      error
	cancel   context.CancelFunc
	done     chan struct{}
}

func newJob(id string, desc description.Description, opts options) *Job {
	return &Job{id: id, desc: desc, opts: opts, state: adaptor.StateNew, done: make(chan struct{})}
}

func (j *Job) ID() string                           { return j.id }
func (j *Job) Description() description.Description { return j.desc }

func (j *Job) State(context.Context) (adaptor.JobState, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, nil
}

func (j *Job) ExitCode() (int, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode, j.hasExit
}

// Run starts the process and returns. The process is not bound to ctx; only
// Cancel and the wall time limit stop it.
func (j *Job) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != adaptor.StateNew {
		return fmt.Errorf("local: job %s is %s, not New", j.id, j.state)
	}
	logger := ctxlog.FromContext(ctx).With("job_id", j.id)

	cmd := exec.Command(j.desc.Executable(), j.desc.Arguments()...)
	cmd.Dir = j.desc.WorkingDirectory()
	cmd.Env = environ(j.desc.Environment())

	closers, err := j.redirect(cmd)
	if err == nil {
		err = cmd.Start()
		if err != nil {
			closeAll(closers)
			err = fmt.Errorf("local: failed to start %s: %w", j.desc.Executable(), err)
		}
	}
	if err != nil {
		j.state, j.err = adaptor.StateFailed, err
		close(j.done)
		return err
	}
	logger.Info("Local job started.", "pid", cmd.Process.Pid, "executable", j.desc.Executable())

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if limit := j.desc.WallTimeLimit(); limit > 0 {
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), time.Duration(limit)*wallTimeUnit)
	} else {
		runCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	}
	j.cancel = cancel
	j.state = adaptor.StateRunning

	go j.supervise(runCtx, cmd, closers, logger)
	return nil
}

// wallTimeUnit is the unit of description wall time limits.
var wallTimeUnit = time.Minute

// supervise waits for the process, stopping it when runCtx ends, and records
// the outcome.
func (j *Job) supervise(runCtx context.Context, cmd *exec.Cmd, closers []io.Closer, logger *slog.Logger) {
	waitDone := make(chan error, 1)
	go func() { waitDone <- cmd.Wait() }()

	var err error
	select {
	case err = <-waitDone:
	case <-runCtx.Done():
		err = j.stop(cmd.Process, waitDone)
	}
	closeAll(closers)

	timedOut := errors.Is(runCtx.Err(), context.DeadlineExceeded)
	j.mu.Lock()
	defer j.mu.Unlock()
	defer close(j.done)
	j.cancel()

	if j.state == adaptor.StateCanceled {
		logger.Info("Local job cancelled.")
		return
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		j.state, j.exitCode, j.hasExit = adaptor.StateDone, 0, true
	case errors.As(err, &exitErr):
		j.state, j.exitCode, j.hasExit = adaptor.StateFailed, exitErr.ExitCode(), true
	default:
		j.state, j.err = adaptor.StateFailed, err
	}
	if timedOut && j.state != adaptor.StateDone {
		j.err = fmt.Errorf("local: wall time limit exceeded: %w", context.DeadlineExceeded)
	}
	logger.Info("Local job finished.", "state", j.state.String(), "exit_code", j.exitCode)
}

// stop sends SIGTERM, then SIGKILL once the grace period ends. It returns
// the process's wait result.
func (j *Job) stop(proc *os.Process, waitDone <-chan error) error {
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if !errors.Is(err, os.ErrProcessDone) {
			_ = proc.Kill()
		}
		return <-waitDone
	}
	select {
	case err := <-waitDone:
		return err
	case <-time.After(j.opts.gracePeriod):
		_ = proc.Kill()
		return <-waitDone
	}
}

// Wait blocks until the job is final or ctx is done. On ctx expiry it
// returns the current state and ctx's error.
func (j *Job) Wait(ctx context.Context) (adaptor.JobState, error) {
	j.mu.Lock()
	state := j.state
	j.mu.Unlock()
	if state == adaptor.StateNew {
		return state, fmt.Errorf("local: job %s was never run", j.id)
	}

	select {
	case <-j.done:
	case <-ctx.Done():
		st, _ := j.State(ctx)
		return st, ctx.Err()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, j.err
}

// Cancel stops a running job and waits for the process to exit.
func (j *Job) Cancel(ctx context.Context) error {
	j.mu.Lock()
	if j.state != adaptor.StateRunning {
		st := j.state
		j.mu.Unlock()
		return fmt.Errorf("local: cannot cancel job %s in state %s", j.id, st)
	}
	j.state = adaptor.StateCanceled
	cancel := j.cancel
	j.mu.Unlock()

	cancel()
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) redirect(cmd *exec.Cmd) ([]io.Closer, error) {
	var closers []io.Closer
	if path := j.desc.OutputFile(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("local: failed to open output file: %w", err)
		}
		cmd.Stdout = f
		closers = append(closers, f)
	}
	if path := j.desc.ErrorFile(); path != "" {
		f, err := os.Create(path)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("local: failed to open error file: %w", err)
		}
		cmd.Stderr = f
		closers = append(closers, f)
	}
	return closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		_ = c.Close()
	}
}
