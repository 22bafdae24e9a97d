package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/sagagrid/internal/ctxlog"
)

// Validate checks the registered descriptors for problems that Register
// cannot see on its own. Shadowed adaptors, ones that never win resolution
// without an explicit hint, are only logged.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)
	snap := r.snap.Load()

	for _, e := range snap.entries {
		if e.Descriptor.Modes == 0 {
			errs = append(errs, fmt.Sprintf("adaptor '%s' declares no task modes", e.Descriptor.Name))
		}
	}

	for key, entries := range snap.index {
		if len(entries) < 2 {
			continue
		}
		for _, shadowed := range entries[1:] {
			logger.Debug("Adaptor is shadowed for scheme; it is only reachable with an explicit hint.",
				"adaptor", shadowed.Descriptor.Name, "kind", key.kind, "scheme", key.scheme, "preferred", entries[0].Descriptor.Name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
