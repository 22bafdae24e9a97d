package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sagagrid/internal/ctxlog"
)

// Load registers every module in order and seals the registry.
func (r *Registry) Load(ctx context.Context, modules ...Module) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading modules...", "count", len(modules))

	for _, m := range modules {
		if m == nil {
			continue
		}
		before := r.Len()
		if err := m.Register(r); err != nil {
			return fmt.Errorf("failed to register module %T: %w", m, err)
		}
		for _, e := range r.Entries()[before:] {
			d := e.Descriptor
			logger.Debug("Registered adaptor.", "module", fmt.Sprintf("%T", m), "adaptor", d.Name, "kinds", d.Kinds, "schemes", d.Schemes, "modes", d.Modes.String())
		}
	}
	r.Seal()

	logger.Debug("Registry loaded and sealed.", "adaptors", r.Len())
	return nil
}
