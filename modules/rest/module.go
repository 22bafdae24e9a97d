// Package rest drives a job manager exposing a small JSON API over HTTP:
//
//	POST /jobs              {"description": {...}}  -> {"job_id": "...", "state": "New"}
//	GET  /jobs                                      -> {"ids": [...]}
//	GET  /jobs/{id}                                 -> {"job_id": "...", "state": "...", "exit_code": 0}
//	POST /jobs/{id}/run                             -> {"state": "..."}
//	POST /jobs/{id}/cancel                          -> {"state": "..."}
//
// Paths are relative to the service URL, so http://host/api/v1 addresses
// http://host/api/v1/jobs. Unknown jobs are answered with 404.
package rest

import (
	"context"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// Name is the adaptor name used for explicit selection.
const Name = "rest"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the adaptor with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(Adaptor{})
}

// Adaptor constructs REST job services.
type Adaptor struct{}

func (Adaptor) Descriptor() adaptor.Descriptor {
	return adaptor.Descriptor{
		Name:    Name,
		Kinds:   []adaptor.Kind{adaptor.KindJobService},
		Schemes: []string{"http", "https"},
		Modes:   taskmode.SupportBoth,
	}
}

// NewJobService builds the HTTP client. It does not contact the manager.
func (Adaptor) NewJobService(ctx context.Context, args adaptor.Args) (adaptor.JobService, error) {
	svc, err := newService(ctx, args)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (a Adaptor) NewJobServiceTask(_ context.Context, args adaptor.Args) (*task.Task[adaptor.JobService], error) {
	return adaptor.Defer(args, a.NewJobService), nil
}
