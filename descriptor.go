package nasc

import "reflect"

// Mode represents the caching strategy declared for an injectable type.
type Mode string

const (
	// ModeSingleton keeps at most one cached instance per type.
	// This is the default when a declared descriptor leaves Mode empty.
	ModeSingleton Mode = "singleton"

	// ModeOnDemand builds a fresh instance on every resolution.
	// On-demand instances are never cached, even when reached through a
	// singleton's dependency chain.
	ModeOnDemand Mode = "on-demand"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// Provides holds named values that flow down a resolution subtree.
// Parameter factories such as InjectArg read from it.
type Provides map[string]any

// FactoryFunc replaces normal constructor invocation for a type.
// Returning a nil instance with a nil error means "no instance available"
// and is not a failure.
type FactoryFunc func(d Descriptor) (any, error)

// GuardFunc gates both reuse of a cached singleton and creation of a new
// instance. existing is nil when nothing is cached.
type GuardFunc func(existing any, d Descriptor) bool

// Descriptor is the declarative recipe that controls how a type is
// constructed and cached.
//
// Example:
//
//	nasc.Descriptor{
//	    Mode:     nasc.ModeOnDemand,
//	    Provides: nasc.Provides{"dsn": "postgres://localhost"},
//	    Imports: []nasc.Import{
//	        nasc.ImportOf[*Cache](nasc.Descriptor{Provides: nasc.Provides{"ttl": 30}}),
//	    },
//	}
type Descriptor struct {
	Mode       Mode
	Imports    []Import
	Provides   Provides
	UseFactory FactoryFunc
	UseGuard   GuardFunc
}

// Import substitutes a descriptor whenever a parameter of Type is resolved.
type Import struct {
	Type reflect.Type
	Descriptor
}

// TypeOf returns the type identity used for T by the injector.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// ImportOf builds an Import for T.
func ImportOf[T any](d Descriptor) Import {
	return Import{Type: TypeOf[T](), Descriptor: d}
}

// Dep builds an Import for T without any descriptor override.
// It is the bare-type form accepted by Fn.
func Dep[T any]() Import {
	return Import{Type: TypeOf[T]()}
}

// FindImport returns the first import targeting t.
// Imports merged from an override come first, so overrides win.
func (d Descriptor) FindImport(t reflect.Type) (Import, bool) {
	for _, imp := range d.Imports {
		if imp.Type == t {
			return imp, true
		}
	}
	return Import{}, false
}

// Merge combines a base descriptor with an override.
//
// Imports are concatenated with the override entries first. Provides are
// merged key by key with the override winning on collision. A non-nil
// UseFactory or UseGuard in the override replaces the base one outright.
// The mode always comes from the base unless the base has none.
//
// Merge never mutates its arguments.
func Merge(base, override Descriptor) Descriptor {
	merged := Descriptor{
		Mode:       base.Mode,
		UseFactory: base.UseFactory,
		UseGuard:   base.UseGuard,
	}
	if merged.Mode == "" {
		merged.Mode = override.Mode
	}

	if n := len(override.Imports) + len(base.Imports); n > 0 {
		merged.Imports = make([]Import, 0, n)
		merged.Imports = append(merged.Imports, override.Imports...)
		merged.Imports = append(merged.Imports, base.Imports...)
	}

	merged.Provides = make(Provides, len(base.Provides)+len(override.Provides))
	for k, v := range base.Provides {
		merged.Provides[k] = v
	}
	for k, v := range override.Provides {
		merged.Provides[k] = v
	}

	if override.UseFactory != nil {
		merged.UseFactory = override.UseFactory
	}
	if override.UseGuard != nil {
		merged.UseGuard = override.UseGuard
	}

	return merged
}
