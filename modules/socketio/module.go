// Package socketio talks to a remote job manager over socket.io.
//
// The remote side listens for "job.request" events and answers each one with
// a "job.response" event carrying the same request_id:
//
//	-> job.request  {"request_id": "…", "op": "create", "description": {…}}
//	<- job.response {"request_id": "…", "job_id": "…"}
//
// Supported ops are create, run, state, cancel and list. A failed request is
// answered with an "error" field, and with "code": "not_found" for unknown
// jobs. URLs use sio:// for plain and sios:// for TLS connections.
package socketio

import (
	"context"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// Name is the adaptor name used for explicit selection.
const Name = "socketio"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the adaptor with the engine.
func (m *Module) Register(r *registry.Registry) error {
	return r.Register(Adaptor{})
}

// Adaptor constructs socket.io job services.
type Adaptor struct{}

func (Adaptor) Descriptor() adaptor.Descriptor {
	return adaptor.Descriptor{
		Name:    Name,
		Kinds:   []adaptor.Kind{adaptor.KindJobService},
		Schemes: []string{"sio", "sios"},
		Modes:   taskmode.SupportBoth,
	}
}

// NewJobService connects to the remote manager before returning.
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
