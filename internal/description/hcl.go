package description

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes the top level of a job description file.
type fileRoot struct {
	Job    *jobBlock `hcl:"job,block"`
	Remain hcl.Body  `hcl:",remain"`
}

type jobBlock struct {
	Executable       string         `hcl:"executable,optional"`
	Arguments        []string       `hcl:"arguments,optional"`
	Environment      hcl.Expression `hcl:"environment,optional"`
	WorkingDirectory string         `hcl:"working_directory,optional"`
	Output           string         `hcl:"output,optional"`
	Error            string         `hcl:"error,optional"`
	WallTimeLimit    int            `hcl:"wall_time_limit,optional"`
	Project          string         `hcl:"project,optional"`
	Queue            string         `hcl:"queue,optional"`
	TotalCPUCount    int            `hcl:"total_cpu_count,optional"`
	SPMDVariation    string         `hcl:"spmd_variation,optional"`
}

// LoadFile reads a job description from an HCL file containing one job block:
//
//	job {
//	  executable  = "/bin/date"
//	  environment = { TZ = "UTC", RETRIES = 3 }
//	}
//
// The environment may hold values of any type; they are stringified by Build.
func LoadFile(path string) (Draft, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Draft{}, fmt.Errorf("failed to parse job description %s: %w", path, diags)
	}
	return decode(f, path)
}

// Parse reads a job description from HCL source. filename is only used in
// diagnostics.
func Parse(src []byte, filename string) (Draft, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Draft{}, fmt.Errorf("failed to parse job description %s: %w", filename, diags)
	}
	return decode(f, filename)
}

func decode(f *hcl.File, filename string) (Draft, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return Draft{}, fmt.Errorf("failed to decode job description %s: %w", filename, diags)
	}
	if root.Job == nil {
		return Draft{}, fmt.Errorf("%w: %s has no job block", ErrInvalidJobDescription, filename)
	}

	jb := root.Job
	d := Draft{
		Executable:       jb.Executable,
		Arguments:        jb.Arguments,
		WorkingDirectory: jb.WorkingDirectory,
		Output:           jb.Output,
		Error:            jb.Error,
		WallTimeLimit:    jb.WallTimeLimit,
		Project:          jb.Project,
		Queue:            jb.Queue,
		TotalCPUCount:    jb.TotalCPUCount,
		SPMDVariation:    jb.SPMDVariation,
	}

	if isExprDefined(jb.Environment) {
		val, diags := jb.Environment.Value(nil)
		if diags.HasErrors() {
			return Draft{}, fmt.Errorf("invalid environment in %s: %w", filename, diags)
		}
		env, err := environmentFromCty(val)
		if err != nil {
			return Draft{}, fmt.Errorf("invalid environment in %s: %w", filename, err)
		}
		d.Environment = env
	}
	return d, nil
}

// isExprDefined reports whether an optional attribute was actually written.
// gohcl fills omitted optional expressions with a zero-width placeholder.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// environmentFromCty keeps the raw cty values; Build stringifies them.
func environmentFromCty(val cty.Value) (map[string]any, error) {
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("environment must be an object, got %s", ty.FriendlyName())
	}
	env := make(map[string]any, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		env[k.AsString()] = v
	}
	return env, nil
}
