// Package local runs jobs as processes on this machine.
//
// It serves the fork and local schemes and URLs without scheme, so a
// service created for "" or "fork://localhost" ends up here.
package local

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// Name is the adaptor name used for explicit selection.
const Name = "local"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the adaptor with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(Adaptor{})
}

// Adaptor constructs local job services.
type Adaptor struct{}

func (Adaptor) Descriptor() adaptor.Descriptor {
	return adaptor.Descriptor{
		Name:    Name,
		Kinds:   []adaptor.Kind{adaptor.KindJobService},
		Schemes: []string{"fork", "local", adaptor.AnyScheme},
		Modes:   taskmode.SupportBoth,
	}
}

// NewJobService checks that the URL designates this host.
func (Adaptor) NewJobService(ctx context.Context, args adaptor.Args) (adaptor.JobService, error) {
	logger := ctxlog.FromContext(ctx).With("adaptor", Name, "url", args.URL)

	host := ""
	if !args.URL.IsZero() {
		host = args.URL.Hostname()
	}
	if !isLocalHost(host) {
		return nil, fmt.Errorf("local: %q is not this host", host)
	}

	opts, err := parseOptions(args.State)
	if err != nil {
		return nil, err
	}
	logger.Debug("Local job service ready.", "grace_period", opts.gracePeriod)
	return newService(args, opts), nil
}

func (a Adaptor) NewJobServiceTask(_ context.Context, args adaptor.Args) (*task.Task[adaptor.JobService], error) {
	return adaptor.Defer(args, a.NewJobService), nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(host) {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	name, err := os.Hostname()
	return err == nil && strings.EqualFold(name, host)
}
