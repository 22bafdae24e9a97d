// Package testconfig loads the settings used to run jobs against a real
// resource manager: the service URL, the security context, and job
// parameters that a site requires, such as project or queue.
//
// The file holds one or more categories:
//
//	category "saga.tests" {
//	  job_service_url = "fork://localhost"
//	  context_type    = "ssh"
//	  context_user_id = "alice"
//	  job_queue       = "debug"
//	}
package testconfig

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/sagagrid/internal/description"
	"github.com/specialistvlad/sagagrid/internal/session"
)

// DefaultCategory is the category read when none is requested.
const DefaultCategory = "saga.tests"

// ErrCategoryNotFound is returned when the file lacks the requested category.
var ErrCategoryNotFound = errors.New("testconfig: category not found")

type fileRoot struct {
	Categories []*categoryBlock `hcl:"category,block"`
	Remain     hcl.Body         `hcl:",remain"`
}

type categoryBlock struct {
	Name   string `hcl:"name,label"`
	Config Config `hcl:",remain"`
}

// Config is one category. Job parameters are pointers so that an unset key
// can be told apart from a zero value.
type Config struct {
	Category string

	JobServiceURL    string `hcl:"job_service_url,optional"`
	ContextType      string `hcl:"context_type,optional"`
	ContextUserID    string `hcl:"context_user_id,optional"`
	ContextUserPass  string `hcl:"context_user_pass,optional"`
	ContextUserCert  string `hcl:"context_user_cert,optional"`
	ContextUserProxy string `hcl:"context_user_proxy,optional"`

	JobWallTimeLimit *int    `hcl:"job_walltime_limit,optional"`
	JobProject       *string `hcl:"job_project,optional"`
	JobQueue         *string `hcl:"job_queue,optional"`
	JobTotalCPUCount *int    `hcl:"job_total_cpu_count,optional"`
	JobSPMDVariation *string `hcl:"job_spmd_variation,optional"`

	session *session.Session
}

// Load reads category from the HCL file at path. An empty category means
// DefaultCategory.
func Load(path, category string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse test config %s: %w", path, diags)
	}
	return decode(f, path, category)
}

// Parse is Load for in-memory source.
func Parse(src []byte, filename, category string) (*Config, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse test config %s: %w", filename, diags)
	}
	return decode(f, filename, category)
}

func decode(f *hcl.File, filename, category string) (*Config, error) {
	if category == "" {
		category = DefaultCategory
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode test config %s: %w", filename, diags)
	}

	for _, c := range root.Categories {
		if c.Name != category {
			continue
		}
		cfg := c.Config
		cfg.Category = category
		s, err := cfg.buildSession()
		if err != nil {
			return nil, fmt.Errorf("invalid context in %s: %w", filename, err)
		}
		cfg.session = s
		return &cfg, nil
	}
	return nil, fmt.Errorf("%w: %q in %s", ErrCategoryNotFound, category, filename)
}

// buildSession starts from an empty session and adds the configured context,
// if any.
func (c *Config) buildSession() (*session.Session, error) {
	s := session.New()
	if c.ContextType == "" {
		return s, nil
	}
	err := s.AddContext(session.Context{
		Type:      c.ContextType,
		UserID:    c.ContextUserID,
		UserPass:  c.ContextUserPass,
		UserCert:  c.ContextUserCert,
		UserProxy: c.ContextUserProxy,
	})
	return s, err
}

// Session returns the session built from the context settings. It never
// holds default contexts.
func (c *Config) Session() *session.Session {
	if c.session == nil {
		c.session, _ = c.buildSession()
	}
	return c.session
}

// AddParamsToDescription copies the job parameters that are set onto a copy
// of d.
func (c *Config) AddParamsToDescription(d description.Draft) description.Draft {
	out := d.Clone()
	if c.JobWallTimeLimit != nil {
		out.WallTimeLimit = *c.JobWallTimeLimit
	}
	if c.JobProject != nil {
		out.Project = *c.JobProject
	}
	if c.JobQueue != nil {
		out.Queue = *c.JobQueue
	}
	if c.JobTotalCPUCount != nil {
		out.TotalCPUCount = *c.JobTotalCPUCount
	}
	if c.JobSPMDVariation != nil {
		out.SPMDVariation = *c.JobSPMDVariation
	}
	return out
}
