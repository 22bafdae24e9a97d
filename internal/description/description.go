// Package description models job descriptions.
//
// Callers fill in a Draft, an ordinary mutable struct. Build validates it and
// produces a Description, an immutable value whose environment has been
// normalized to strings. Adaptors only ever see Descriptions.
package description

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidJobDescription is returned by Build for unusable drafts.
var ErrInvalidJobDescription = errors.New("description: invalid job description")

// Attribute names a description field for existence checks.
type Attribute string

const (
	Executable       Attribute = "Executable"
	Arguments        Attribute = "Arguments"
	Environment      Attribute = "Environment"
	WorkingDirectory Attribute = "WorkingDirectory"
	Output           Attribute = "Output"
	Error            Attribute = "Error"
	WallTimeLimit    Attribute = "WallTimeLimit"
	Project          Attribute = "Project"
	Queue            Attribute = "Queue"
	TotalCPUCount    Attribute = "TotalCPUCount"
	SPMDVariation    Attribute = "SPMDVariation"
)

// Attributes lists every known attribute.
var Attributes = []Attribute{
	Executable, Arguments, Environment, WorkingDirectory, Output, Error,
	WallTimeLimit, Project, Queue, TotalCPUCount, SPMDVariation,
}

// Draft is the editable form of a job description.
type Draft struct {
	Executable       string
	Arguments        []string
	Environment      map[string]any
	WorkingDirectory string
	Output           string
	Error            string
	// WallTimeLimit is expressed in minutes.
	WallTimeLimit int
	Project       string
	Queue         string
	TotalCPUCount int
	SPMDVariation string
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	c := d
	c.Arguments = slices.Clone(d.Arguments)
	c.Environment = maps.Clone(d.Environment)
	return c
}

// Has reports whether attribute a carries a value.
func (d Draft) Has(a Attribute) bool {
	switch a {
	case Executable:
		return d.Executable != ""
	case Arguments:
		return len(d.Arguments) > 0
	case Environment:
		return len(d.Environment) > 0
	case WorkingDirectory:
		return d.WorkingDirectory != ""
	case Output:
		return d.Output != ""
	case Error:
		return d.Error != ""
	case WallTimeLimit:
		return d.WallTimeLimit > 0
	case Project:
		return d.Project != ""
	case Queue:
		return d.Queue != ""
	case TotalCPUCount:
		return d.TotalCPUCount > 0
	case SPMDVariation:
		return d.SPMDVariation != ""
	default:
		return false
	}
}

// Description is a validated, normalized job description.
type Description struct {
	draft       Draft
	environment map[string]string
}

// Build validates d and returns the normalized Description. d is not modified.
func Build(d Draft) (Description, error) {
	if strings.TrimSpace(d.Executable) == "" {
		return Description{}, fmt.Errorf("%w: no executable defined", ErrInvalidJobDescription)
	}
	if d.WallTimeLimit < 0 {
		return Description{}, fmt.Errorf("%w: negative wall time limit %d", ErrInvalidJobDescription, d.WallTimeLimit)
	}
	if d.TotalCPUCount < 0 {
		return Description{}, fmt.Errorf("%w: negative cpu count %d", ErrInvalidJobDescription, d.TotalCPUCount)
	}

	env, err := stringifyEnvironment(d.Environment)
	if err != nil {
		return Description{}, err
	}

	c := d.Clone()
	c.Environment = nil
	return Description{draft: c, environment: env}, nil
}

// MustBuild is like Build but panics on error.
func MustBuild(d Draft) Description {
	desc, err := Build(d)
	if err != nil {
		panic(err)
	}
	return desc
}

func (d Description) Executable() string       { return d.draft.Executable }
func (d Description) Arguments() []string      { return slices.Clone(d.draft.Arguments) }
func (d Description) WorkingDirectory() string { return d.draft.WorkingDirectory }
func (d Description) OutputFile() string       { return d.draft.Output }
func (d Description) ErrorFile() string        { return d.draft.Error }
func (d Description) WallTimeLimit() int       { return d.draft.WallTimeLimit }
func (d Description) Project() string          { return d.draft.Project }
func (d Description) Queue() string            { return d.draft.Queue }
func (d Description) TotalCPUCount() int       { return d.draft.TotalCPUCount }
func (d Description) SPMDVariation() string    { return d.draft.SPMDVariation }

// Environment returns a copy of the string environment.
func (d Description) Environment() map[string]string {
	return maps.Clone(d.environment)
}

// Has reports whether attribute a carries a value.
func (d Description) Has(a Attribute) bool {
	if a == Environment {
		return len(d.environment) > 0
	}
	return d.draft.Has(a)
}

// Draft returns a deep copy of d in editable form.
func (d Description) Draft() Draft {
	c := d.draft.Clone()
	if len(d.environment) > 0 {
		c.Environment = make(map[string]any, len(d.environment))
		for k, v := range d.environment {
			c.Environment[k] = v
		}
	}
	return c
}

// IsZero reports whether d was never built.
func (d Description) IsZero() bool {
	return d.draft.Executable == ""
}

// Map renders d as a plain map, keyed by the snake_case HCL attribute names.
// Only attributes that carry a value are included.
func (d Description) Map() map[string]any {
	out := map[string]any{"executable": d.draft.Executable}
	if d.Has(Arguments) {
		out["arguments"] = d.Arguments()
	}
	if d.Has(Environment) {
		out["environment"] = d.Environment()
	}
	if d.Has(WorkingDirectory) {
		out["working_directory"] = d.draft.WorkingDirectory
	}
	if d.Has(Output) {
		out["output"] = d.draft.Output
	}
	if d.Has(Error) {
		out["error"] = d.draft.Error
	}
	if d.Has(WallTimeLimit) {
		out["wall_time_limit"] = d.draft.WallTimeLimit
	}
	if d.Has(Project) {
		out["project"] = d.draft.Project
	}
	if d.Has(Queue) {
		out["queue"] = d.draft.Queue
	}
	if d.Has(TotalCPUCount) {
		out["total_cpu_count"] = d.draft.TotalCPUCount
	}
	if d.Has(SPMDVariation) {
		out["spmd_variation"] = d.draft.SPMDVariation
	}
	return out
}
