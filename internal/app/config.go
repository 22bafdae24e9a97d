package app

import (
	"errors"

	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	URL        string // resource manager; falls back to the test config
	Adaptor    string // explicit adaptor name, empty for scheme resolution
	Mode       taskmode.Mode
	JobPath    string // hcl job descriptions
	TestConfig string
	Category   string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	MaxBinds        int

	List         bool
	ListAdaptors bool
	NoWait       bool
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if !cfg.Mode.Valid() {
		return nil, taskmode.ErrUnknownMode
	}
	if cfg.ListAdaptors {
		return &cfg, nil
	}
	if cfg.URL == "" && cfg.TestConfig == "" {
		return nil, errors.New("a resource manager URL or a test config is required")
	}
	if cfg.JobPath == "" && !cfg.List {
		return nil, errors.New("nothing to do: give a job path or ask for a job listing")
	}
	if cfg.MaxBinds < 0 {
		return nil, errors.New("max binds cannot be negative")
	}
	return &cfg, nil
}
