package nasc

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Injector resolves object graphs from the descriptors held by its
// Metadata. Each Injector owns its singleton cache and instance
// associations; two injectors never observe each other's instances.
//
// Resolution is synchronous and an Injector must not be used for
// concurrent resolutions. Callers that need a shared injector create one
// and pass it around explicitly.
type Injector struct {
	meta      Metadata
	instances *instanceRegistry
	logger    *zap.Logger
	metrics   *metrics
	tracer    trace.Tracer
	maxDepth  int
	stack     []reflect.Type

	// spanCtx carries the span of the resolution in progress.
	spanCtx context.Context
}

// New creates an Injector reading declarations from meta.
// Options can be provided to configure the injector behavior.
//
// Example:
//
//	reg := registry.New()
//	_ = reg.Register(NewDatabase, nasc.Descriptor{})
//	injector := nasc.New(reg, nasc.WithLogger(logger))
func New(meta Metadata, options ...Option) *Injector {
	if meta == nil {
		panic("nasc: metadata cannot be nil")
	}

	i := &Injector{
		meta:      meta,
		instances: newInstanceRegistry(),
		logger:    zap.NewNop(),
		tracer:    noop.NewTracerProvider().Tracer(""),
		maxDepth:  DefaultMaxDepth,
		spanCtx:   context.Background(),
	}

	for _, opt := range options {
		if err := opt(i); err != nil {
			panic(fmt.Sprintf("failed to apply option: %v", err))
		}
	}

	return i
}

// site locates the parameter being resolved, for diagnostics.
type site struct {
	owner  reflect.Type
	method string
	param  int
}

var topLevel = site{param: -1}

// Instantiate resolves an instance of t, merging override into the
// descriptor declared for t.
//
// A nil instance with a nil error is a legitimate outcome: a guard vetoed
// the resolution or the factory had no instance to offer.
//
// Example:
//
//	v, err := injector.Instantiate(nasc.TypeOf[*UserService](), nasc.Descriptor{
//	    Provides: nasc.Provides{"tenant": "acme"},
//	})
func (i *Injector) Instantiate(t reflect.Type, override Descriptor) (any, error) {
	return i.instantiate(t, override, topLevel)
}

func (i *Injector) instantiate(t reflect.Type, override Descriptor, at site) (instance any, err error) {
	if t == nil || !i.meta.IsInjectable(t) {
		return nil, &NotInjectableError{Type: t, Owner: at.owner, Method: at.method, Param: at.param}
	}

	if len(i.stack) >= i.maxDepth {
		return nil, &CircularDependencyError{Path: i.path(t)}
	}
	i.stack = append(i.stack, t)
	defer func() { i.stack = i.stack[:len(i.stack)-1] }()

	end := i.startSpan("nasc.Instantiate", attribute.String("nasc.type", t.String()))
	defer func() { end(err) }()

	return i.resolve(t, override)
}

func (i *Injector) resolve(t reflect.Type, override Descriptor) (any, error) {
	declared, ok := i.meta.DeclaredDescriptor(t)
	if !ok {
		declared = Descriptor{Mode: ModeSingleton}
	}
	if declared.Mode == "" {
		declared.Mode = ModeSingleton
	}
	singleton := declared.Mode == ModeSingleton

	effective := Merge(declared, override)
	guard := effective.UseGuard
	factory := effective.UseFactory

	if singleton {
		if existing, ok := i.instances.singleton(t); ok {
			if guard != nil && !guard(existing, effective) {
				i.logger.Debug("guard vetoed cached instance", zap.Stringer("type", t))
				i.metrics.instantiation(outcomeVetoed)
				return nil, nil
			}
			i.logger.Debug("instance reused from cache", zap.Stringer("type", t))
			i.metrics.instantiation(outcomeCached)
			return existing, nil
		}
	}

	if guard != nil && !guard(nil, effective) {
		i.logger.Debug("guard vetoed construction", zap.Stringer("type", t))
		i.metrics.instantiation(outcomeVetoed)
		return nil, nil
	}

	var (
		instance any
		err      error
	)
	if factory != nil {
		instance, err = factory(effective)
		if err != nil {
			return nil, &ResolutionError{Type: t, Context: "factory failed", Cause: err}
		}
	} else {
		instance, err = i.construct(t, effective)
		if err != nil {
			return nil, err
		}
	}

	if isNil(instance) {
		i.logger.Debug("no instance available", zap.Stringer("type", t))
		i.metrics.instantiation(outcomeDeclined)
		return nil, nil
	}

	i.instances.associate(instance, effective)
	if singleton {
		i.instances.storeSingleton(t, instance)
	}

	i.logger.Debug("instance constructed",
		zap.Stringer("type", t),
		zap.Stringer("mode", declared.Mode),
		zap.Bool("factory", factory != nil),
	)
	i.metrics.instantiation(outcomeConstructed)
	return instance, nil
}

func (i *Injector) construct(t reflect.Type, effective Descriptor) (any, error) {
	params, err := i.meta.ParamTypes(t)
	if err != nil {
		return nil, &ResolutionError{Type: t, Context: "parameter types unavailable", Cause: err}
	}

	args, err := i.resolveArgs(t, "", params, effective)
	if err != nil {
		return nil, err
	}

	instance, err := i.meta.Construct(t, args)
	if err != nil {
		return nil, &ResolutionError{Type: t, Context: "constructor failed", Cause: err}
	}
	return instance, nil
}

// resolveArgs resolves each parameter of owner (or of its method) left to
// right. The first failure aborts the whole list.
func (i *Injector) resolveArgs(owner reflect.Type, method string, params []reflect.Type, effective Descriptor) ([]any, error) {
	args := make([]any, len(params))
	for ix, p := range params {
		if factory := i.meta.ParamFactory(owner, method, ix); factory != nil {
			v, err := factory(effective, p)
			if err != nil {
				return nil, &ResolutionError{
					Type:    owner,
					Context: fmt.Sprintf("parameter factory %s failed", paramSite(owner, method, ix)),
					Cause:   err,
				}
			}
			args[ix] = v
			continue
		}

		child := Descriptor{Provides: effective.Provides}
		if imp, ok := effective.FindImport(p); ok {
			child = Merge(child, imp.Descriptor)
		}

		v, err := i.instantiate(p, child, site{owner: owner, method: method, param: ix})
		if err != nil {
			return nil, err
		}
		args[ix] = v
	}
	return args, nil
}

// Get returns the cached singleton of t, or nil. It never constructs.
func (i *Injector) Get(t reflect.Type) any {
	instance, _ := i.instances.singleton(t)
	return instance
}

// Clear drops every cached singleton and instance association.
// No resolution may be in flight.
func (i *Injector) Clear() {
	i.instances.reset()
	i.logger.Debug("injector cleared")
}

// Disposable represents a service that requires cleanup.
// Cached singletons implementing it are disposed by Injector.Dispose.
//
// Example:
//
//	type DatabaseConnection struct {}
//	func (d *DatabaseConnection) Dispose() error {
//	    return d.connection.Close()
//	}
type Disposable interface {
	Dispose() error
}

// Dispose calls Dispose on every cached singleton implementing Disposable,
// newest first, then clears the injector. All disposal errors are
// returned combined.
func (i *Injector) Dispose() error {
	instances := i.instances.creationOrder()

	var err error
	for ix := len(instances) - 1; ix >= 0; ix-- {
		if disposable, ok := instances[ix].(Disposable); ok {
			if dErr := disposable.Dispose(); dErr != nil {
				err = multierr.Append(err, fmt.Errorf("disposal error for %T: %w", instances[ix], dErr))
			}
		}
	}

	i.Clear()
	return err
}

// Make resolves a T through Instantiate. It returns the zero T when the
// resolution was declined.
//
// Example:
//
//	svc, err := nasc.Make[*UserService](injector, nasc.Descriptor{})
func Make[T any](i *Injector, override Descriptor) (T, error) {
	var zero T
	want := TypeOf[T]()

	instance, err := i.Instantiate(want, override)
	if err != nil || instance == nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{Want: want, Got: reflect.TypeOf(instance)}
	}
	return typed, nil
}

// Cached returns the cached singleton of T without constructing anything.
func Cached[T any](i *Injector) (T, bool) {
	typed, ok := i.Get(TypeOf[T]()).(T)
	return typed, ok
}

func (i *Injector) path(next reflect.Type) []string {
	// The tail is enough to see the cycle.
	const tail = 8
	start := 0
	if len(i.stack) > tail {
		start = len(i.stack) - tail
	}

	path := make([]string, 0, tail+1)
	for _, t := range i.stack[start:] {
		path = append(path, t.String())
	}
	return append(path, next.String())
}

func paramSite(owner reflect.Type, method string, ix int) string {
	if method == "" {
		return fmt.Sprintf("%s[%d]", typeName(owner), ix)
	}
	return fmt.Sprintf("%s.%s[%d]", typeName(owner), method, ix)
}
