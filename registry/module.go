package registry

import (
	"fmt"
	"reflect"
)

// Module is the interface that must be implemented by registration modules.
// Modules encapsulate related registrations.
//
// Example:
//
//	type StorageModule struct{}
//
//	func (m *StorageModule) Register(r *registry.Registry) error {
//	    return r.Register(NewDatabase, nasc.Descriptor{})
//	}
type Module interface {
	Register(r *Registry) error
}

// DeferredModule is an optional interface for modules that should be
// installed conditionally.
type DeferredModule interface {
	Module
	ShouldRegister(r *Registry) bool
}

// Install registers modules in order. A module whose type was already
// installed is skipped, as is a DeferredModule that declines.
//
// Example:
//
//	reg.Install(&StorageModule{}, &HTTPModule{})
func (r *Registry) Install(modules ...Module) error {
	for _, module := range modules {
		if module == nil {
			return fmt.Errorf("module cannot be nil")
		}

		if deferred, ok := module.(DeferredModule); ok && !deferred.ShouldRegister(r) {
			continue
		}

		if r.installed(module) {
			continue
		}

		if err := module.Register(r); err != nil {
			return fmt.Errorf("module %T registration failed: %w", module, err)
		}

		r.mu.Lock()
		r.modules = append(r.modules, module)
		r.mu.Unlock()
	}

	return nil
}

// Modules returns the installed modules in installation order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modules := make([]Module, len(r.modules))
	copy(modules, r.modules)
	return modules
}

func (r *Registry) installed(module Module) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	moduleType := reflect.TypeOf(module)
	for _, existing := range r.modules {
		if reflect.TypeOf(existing) == moduleType {
			return true
		}
	}
	return false
}
