// Package job is the client-facing job service.
//
// A Service is created for a resource-manager URL and forwards every call to
// the adaptor instance the engine bound it to. With taskmode.NoTask the
// instance exists when Create returns. With the task modes Create returns at
// once and every method waits for the construction to finish.
//
//	svc, err := job.NewService(ctx, eng, "fork://localhost", nil)
//	if err != nil {
//		return err
//	}
//	defer svc.Close(ctx)
//
//	j, err := svc.CreateJob(ctx, description.Draft{Executable: "/bin/date"})
package job
