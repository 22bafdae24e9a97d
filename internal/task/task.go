// Package task provides the handle returned by every task-producing operation.
//
// A Task wraps a function that runs at most once and moves through
//
//	Created → Running → Completed | Failed | Cancelled
//
// Cancelled is only reachable from Running. The terminal state is recorded
// exactly once, so a cancellation racing with completion resolves to a single
// outcome that every observer agrees on.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

var (
	// ErrCancelled is returned by Wait for a task that was cancelled.
	ErrCancelled = errors.New("task: cancelled")
	// ErrAlreadyStarted is returned when starting a task that left Created.
	ErrAlreadyStarted = errors.New("task: already started")
)

// State is the lifecycle state of a task.
type State int32

const (
	Created State = iota
	Running
	Completed
	Failed
	Cancelled
)

var stateNames = [...]string{"created", "running", "completed", "failed", "cancelled"}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// IsFinal reports whether s is a terminal state.
func (s State) IsFinal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Func is the unit of work carried by a task.
type Func[T any] func(ctx context.Context) (T, error)

// Task is a handle on work that produces a T.
type Task[T any] struct {
	fn Func[T]

	mu     sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc

	finishOnce sync.Once
	done       chan struct{}
	value      T
	err        error
}

// New creates a task in the Created state. Nothing runs until Start or Run.
func New[T any](fn Func[T]) *Task[T] {
	return &Task[T]{fn: fn, done: make(chan struct{})}
}

// Resolved returns a task that already completed with v.
func Resolved[T any](v T) *Task[T] {
	t := New[T](nil)
	t.finish(Completed, v, nil)
	return t
}

// Rejected returns a task that already failed with err.
func Rejected[T any](err error) *Task[T] {
	t := New[T](nil)
	var zero T
	t.finish(Failed, zero, err)
	return t
}

// State returns the current state.
func (t *Task[T]) State() State {
	return State(t.state.Load())
}

// Done returns a channel closed once the task reaches a terminal state.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Err returns the failure of a terminal task, ErrCancelled for a cancelled
// one, and nil otherwise.
func (t *Task[T]) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// begin moves Created → Running and installs the cancel func under the same
// lock Cancel uses, so a cancel can never miss the context it must close.
func (t *Task[T]) begin(ctx context.Context) (context.Context, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.State() != Created {
		return nil, ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.state.Store(int32(Running))
	return runCtx, nil
}

// Start runs the task on a new goroutine.
func (t *Task[T]) Start(ctx context.Context) error {
	runCtx, err := t.begin(ctx)
	if err != nil {
		return err
	}
	go t.execute(runCtx)
	return nil
}

// Run executes the task on the calling goroutine and returns its outcome.
func (t *Task[T]) Run(ctx context.Context) (T, error) {
	runCtx, err := t.begin(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	t.execute(runCtx)
	return t.value, t.err
}

// Wait blocks until the task is terminal or ctx is done. A ctx expiry is
// returned as is and leaves the task untouched.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel cancels a running task. It returns true when this call decided the
// terminal state.
func (t *Task[T]) Cancel() bool {
	t.mu.Lock()
	if t.State() != Running {
		t.mu.Unlock()
		return false
	}
	cancel := t.cancel
	t.mu.Unlock()

	var zero T
	won := t.finish(Cancelled, zero, ErrCancelled)
	cancel()
	return won
}

func (t *Task[T]) execute(ctx context.Context) {
	var (
		value T
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task: panic: %v", r)
			}
		}()
		value, err = t.fn(ctx)
	}()

	if err != nil {
		t.finish(Failed, value, err)
	} else {
		t.finish(Completed, value, nil)
	}

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()
}

// finish records the terminal state once; later calls are no-ops.
func (t *Task[T]) finish(state State, value T, err error) bool {
	won := false
	t.finishOnce.Do(func() {
		t.value = value
		t.err = err
		t.state.Store(int32(state))
		close(t.done)
		won = true
	})
	return won
}

// Launch applies a task mode to a freshly created task: Sync and NoTask run it
// inline, Async starts it, Task leaves it for the caller to start.
func Launch[T any](ctx context.Context, t *Task[T], mode taskmode.Mode) error {
	switch mode {
	case taskmode.NoTask, taskmode.Sync:
		if t.State() != Created {
			return ErrAlreadyStarted
		}
		_, _ = t.Run(ctx)
		return nil
	case taskmode.Async:
		return t.Start(ctx)
	case taskmode.Task:
		return nil
	default:
		return fmt.Errorf("%w: %s", taskmode.ErrUnknownMode, mode)
	}
}
