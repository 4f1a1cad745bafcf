package registry

import (
	"fmt"
	"reflect"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

type optionKind int

const (
	kindType optionKind = iota
	kindMethod
)

// Option configures a type or method registration.
type Option func(*options) error

type options struct {
	kind      optionKind
	as        reflect.Type
	factories map[int]nasc.ParamFactory
	guards    []nasc.MethodGuard
	chain     []nasc.DirectCallHandler
}

func applyOptions(opts []Option, kind optionKind) (*options, error) {
	o := &options{kind: kind, factories: make(map[int]nasc.ParamFactory)}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// key returns the registration identity for a constructed type.
func (o *options) key(concrete reflect.Type) (reflect.Type, error) {
	if o.as == nil {
		return concrete, nil
	}
	if !concrete.Implements(o.as) {
		return nil, &InvalidBindingError{Reason: fmt.Sprintf("%v does not implement %v", concrete, o.as)}
	}
	return o.as, nil
}

// As registers the type under an interface instead of its concrete type.
// iface should be an interface pointer like (*Logger)(nil).
func As(iface any) Option {
	return func(o *options) error {
		if o.kind != kindType {
			return &InvalidBindingError{Reason: "As applies to type registrations only"}
		}
		t := reflect.TypeOf(iface)
		if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
			return &InvalidBindingError{Reason: fmt.Sprintf("As expects a pointer to interface, got %v", t)}
		}
		o.as = t.Elem()
		return nil
	}
}

// InjectArgFactory produces parameter index with factory instead of
// resolving its type.
func InjectArgFactory(index int, factory nasc.ParamFactory) Option {
	return func(o *options) error {
		if factory == nil {
			return &InvalidBindingError{Reason: fmt.Sprintf("nil factory for parameter %d", index)}
		}
		o.factories[index] = factory
		return nil
	}
}

// InjectArg fills parameter index with the value provided under name.
func InjectArg(index int, name string) Option {
	return InjectArgFactory(index, nasc.InjectArg(name))
}

// WithGuard attaches a method guard. A veto makes CallMethod return nil
// without running the method.
func WithGuard(guard nasc.MethodGuard) Option {
	return func(o *options) error {
		if o.kind != kindMethod {
			return &InvalidBindingError{Reason: "WithGuard applies to method registrations only"}
		}
		if guard == nil {
			return &InvalidBindingError{Reason: "guard cannot be nil"}
		}
		o.guards = append(o.guards, guard)
		return nil
	}
}

// OnDirectCall attaches a direct-call handler wrapping the handlers
// attached before it.
func OnDirectCall(handler nasc.DirectCallHandler) Option {
	return func(o *options) error {
		if o.kind != kindMethod {
			return &InvalidBindingError{Reason: "OnDirectCall applies to method registrations only"}
		}
		if handler == nil {
			return &InvalidBindingError{Reason: "handler cannot be nil"}
		}
		o.chain = append(o.chain, handler)
		return nil
	}
}
