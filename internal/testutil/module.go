package testutil

import (
	"github.com/specialistvlad/sagagrid/internal/adaptor"
	"github.com/specialistvlad/sagagrid/internal/registry"
)

// SimpleModule is a test helper that registers a fixed list of adaptors in
// order.
type SimpleModule struct {
	Adaptors []adaptor.Adaptor
}

// Modules wraps each adaptor in its own module.
func Modules(adaptors ...adaptor.Adaptor) []registry.Module {
	mods := make([]registry.Module, 0, len(adaptors))
	for _, a := range adaptors {
		mods = append(mods, &SimpleModule{Adaptors: []adaptor.Adaptor{a}})
	}
	return mods
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) error {
	for _, a := range m.Adaptors {
		if err := r.Register(a); err != nil {
			return err
		}
	}
	return nil
}
