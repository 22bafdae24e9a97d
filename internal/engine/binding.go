package engine

import (
	"context"
	"errors"

	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/registry"
	"github.com/specialistvlad/sagagrid/internal/task"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
)

// Binding ties one facade object to one adaptor instance, present or pending.
type Binding struct {
	entry registry.Entry
	mode  taskmode.Mode
	task  *task.Task[adaptor.JobService]
}

// Descriptor returns the descriptor of the resolved adaptor.
func (b *Binding) Descriptor() adaptor.Descriptor { return b.entry.Descriptor }

// Mode returns the mode the binding was created with.
func (b *Binding) Mode() taskmode.Mode { return b.mode }

// Task returns the construction task. For taskmode.NoTask it is already
// completed.
func (b *Binding) Task() *task.Task[adaptor.JobService] { return b.task }

// Ready reports whether the instance exists.
func (b *Binding) Ready() bool { return b.task.State() == task.Completed }

// Instance waits for the adaptor instance. A construction that was never
// started is started first.
func (b *Binding) Instance(ctx context.Context) (adaptor.JobService, error) {
	if b.task.State() == task.Created {
		if err := b.task.Start(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, task.ErrAlreadyStarted) {
			return nil, err
		}
	}
	return b.task.Wait(ctx)
}

// Cancel cancels a construction in progress.
func (b *Binding) Cancel() bool {
	return b.task.Cancel()
}

// Close cancels a pending construction or closes the constructed instance.
func (b *Binding) Close(ctx context.Context) error {
	if b.task.State() == task.Running && b.task.Cancel() {
		return nil
	}
	if b.task.State() != task.Completed {
		return nil
	}
	svc, err := b.task.Wait(ctx)
	if err != nil {
		return err
	}
	return svc.Close(ctx)
}
