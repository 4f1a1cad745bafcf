package registry

import (
	"fmt"
	"reflect"

	"go.uber.org/multierr"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

// Validate checks that every binding can be resolved: each constructor
// parameter is either covered by a parameter factory or registered, and
// each declared import targets a registered type.
//
// All problems are returned combined; use multierr.Errors to list them.
func (r *Registry) Validate() error {
	var err error
	for _, t := range r.Types() {
		b, _ := r.Get(t)

		for ix, p := range b.ParamTypes {
			if b.factories[ix] != nil || r.Has(p) {
				continue
			}
			err = multierr.Append(err, &nasc.NotInjectableError{Type: p, Owner: t, Param: ix})
		}

		for _, imp := range b.Descriptor.Imports {
			if imp.Type == nil || !r.Has(imp.Type) {
				err = multierr.Append(err, fmt.Errorf("%v imports %w", t, &nasc.NotInjectableError{Type: imp.Type, Param: -1}))
			}
		}
	}

	for _, t := range r.methodTypes() {
		for _, name := range r.Methods(t) {
			m := r.method(t, name)
			for ix, p := range m.paramTypes {
				if m.factories[ix] != nil || r.Has(p) {
					continue
				}
				err = multierr.Append(err, &nasc.NotInjectableError{Type: p, Owner: t, Method: name, Param: ix})
			}
		}
	}

	return err
}

func (r *Registry) methodTypes() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(r.methods))
	for t := range r.methods {
		types = append(types, t)
	}
	return types
}

func (r *Registry) method(t reflect.Type, name string) *methodBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.methods[t][name]
}
