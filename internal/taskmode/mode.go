// Package taskmode defines the execution discipline a caller requests for an
// operation: an immediate synchronous call, or one of the task-producing
// variants that hand back a handle instead of a value.
package taskmode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by Parse for unrecognized mode names.
var ErrUnknownMode = errors.New("taskmode: unknown task mode")

// Mode is the requested execution discipline.
type Mode int

const (
	// NoTask runs the operation immediately and returns its value.
	NoTask Mode = iota
	// Sync returns a task that has already run to completion on the
	// caller's goroutine.
	Sync
	// Async returns a task that was started on its own goroutine.
	Async
	// Task returns a task that has been created but not started.
	Task
)

var modeNames = map[Mode]string{
	NoTask: "notask",
	Sync:   "sync",
	Async:  "async",
	Task:   "task",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IsAsync reports whether the mode produces a task handle.
func (m Mode) IsAsync() bool {
	return m != NoTask
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Parse converts a mode name into a Mode. The empty string means NoTask.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "notask":
		return NoTask, nil
	case "sync":
		return Sync, nil
	case "async":
		return Async, nil
	case "task":
		return Task, nil
	default:
		return NoTask, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Support is the set of modes an adaptor can honour.
type Support uint8

const (
	// SupportSync means the adaptor has a synchronous constructor.
	SupportSync Support = 1 << iota
	// SupportAsync means the adaptor has an asynchronous constructor.
	SupportAsync

	SupportBoth = SupportSync | SupportAsync
)

// Allows reports whether a component with this support set can serve m.
func (s Support) Allows(m Mode) bool {
	if m.IsAsync() {
		return s&SupportAsync != 0
	}
	return s&SupportSync != 0
}

// String implements fmt.Stringer.
func (s Support) String() string {
	switch s {
	case SupportSync:
		return "sync"
	case SupportAsync:
		return "async"
	case SupportBoth:
		return "sync+async"
	default:
		return "none"
	}
}
