package nasc

import "reflect"

// ParamFactory produces the value of a single constructor or method
// parameter. It receives the effective descriptor of the owner and the
// declared parameter type, and its result is used verbatim.
type ParamFactory func(d Descriptor, t reflect.Type) (any, error)

// InjectArg returns a ParamFactory that reads a named value from the
// effective descriptor's Provides. A missing name yields nil, which becomes
// the parameter type's zero value.
func InjectArg(name string) ParamFactory {
	return func(d Descriptor, _ reflect.Type) (any, error) {
		return d.Provides[name], nil
	}
}

// DescriptorStore exposes the declarative metadata attached to types and
// their members. All queries are pure reads.
type DescriptorStore interface {
	// IsInjectable reports whether t was marked as a resolvable recipe.
	IsInjectable(t reflect.Type) bool

	// DeclaredDescriptor returns the descriptor declared for t.
	DeclaredDescriptor(t reflect.Type) (Descriptor, bool)

	// ParamFactory returns the custom factory registered for a parameter.
	// method is empty for constructor parameters. Nil means none.
	ParamFactory(owner reflect.Type, method string, index int) ParamFactory

	// MethodInterception returns the interception metadata of a method
	// marked as callable through the injector.
	MethodInterception(t reflect.Type, method string) (*Interception, bool)
}

// TypeRegistry knows the declared parameter types of constructors and
// methods and how to invoke a constructor with resolved arguments.
type TypeRegistry interface {
	// ParamTypes returns the constructor parameter types of t in
	// declaration order.
	ParamTypes(t reflect.Type) ([]reflect.Type, error)

	// MethodParamTypes returns the parameter types of a method of t,
	// receiver excluded.
	MethodParamTypes(t reflect.Type, method string) ([]reflect.Type, error)

	// Construct invokes the constructor of t positionally.
	// A nil instance with a nil error means the constructor declined.
	Construct(t reflect.Type, args []any) (any, error)
}

// Metadata is what an Injector consumes: a descriptor store and a type
// registry, typically implemented by the same value (see package registry).
type Metadata interface {
	DescriptorStore
	TypeRegistry
}
