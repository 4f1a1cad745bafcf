package nasc

import (
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MethodFunc invokes a method body on instance with positional arguments.
type MethodFunc func(instance any, args []any) (any, error)

// MethodGuard gates a method call. It sees the instance, the resolved
// arguments and the effective descriptor.
type MethodGuard func(instance any, args []any, d Descriptor) bool

// Invoker calls the next layer of a direct-call chain.
type Invoker func(args ...any) (any, error)

// DirectCallHandler intercepts direct calls of a method. It may inspect or
// transform args, short-circuit, or delegate to next.
type DirectCallHandler func(next Invoker, args ...any) (any, error)

// Interception is the metadata that makes a method callable through
// Injector.CallMethod.
//
// Guards and Chain are stored in attachment order. The most recently
// attached entry runs first, the way stacked decorators do.
type Interception struct {
	Guards []MethodGuard
	Chain  []DirectCallHandler
	Body   MethodFunc
}

// Direct calls the method on instance through the direct-call chain.
// The outermost (last attached) handler runs first and reaches the body
// only through next.
func (ic *Interception) Direct(instance any, args ...any) (any, error) {
	invoke := Invoker(func(args ...any) (any, error) {
		return ic.Body(instance, args)
	})
	for _, handler := range ic.Chain {
		invoke = wrap(handler, invoke)
	}
	return invoke(args...)
}

func wrap(handler DirectCallHandler, next Invoker) Invoker {
	return func(args ...any) (any, error) {
		return handler(next, args...)
	}
}

// allow runs the guards, most recently attached first, and stops at the
// first veto.
func (ic *Interception) allow(instance any, args []any, d Descriptor) bool {
	for ix := len(ic.Guards) - 1; ix >= 0; ix-- {
		if !ic.Guards[ix](instance, args, d) {
			return false
		}
	}
	return true
}

// CallMethod resolves the arguments of a marked method the same way
// constructor arguments are resolved and invokes the method body.
//
// The descriptor recorded for instance at construction is merged with
// override. A method guard veto returns (nil, nil). The direct-call chain
// is not involved; the original body runs.
//
// Example:
//
//	out, err := injector.CallMethod(svc, "Handle", nasc.Descriptor{
//	    Provides: nasc.Provides{"requestID": id},
//	})
func (i *Injector) CallMethod(instance any, method string, override Descriptor) (out any, err error) {
	if instance == nil {
		return nil, ErrNilInstance
	}
	t := reflect.TypeOf(instance)

	end := i.startSpan("nasc.CallMethod",
		attribute.String("nasc.type", t.String()),
		attribute.String("nasc.method", method),
	)
	defer func() { end(err) }()

	return i.callMethod(instance, t, method, override)
}

func (i *Injector) callMethod(instance any, t reflect.Type, method string, override Descriptor) (any, error) {
	ic, ok := i.meta.MethodInterception(t, method)
	if !ok || ic == nil || ic.Body == nil {
		return nil, &MissingInterceptionError{Type: t, Method: method}
	}

	recorded, _ := i.instances.descriptorOf(instance)
	effective := Merge(recorded, override)

	params, err := i.meta.MethodParamTypes(t, method)
	if err != nil {
		return nil, &ResolutionError{Type: t, Context: "parameter types of " + method + " unavailable", Cause: err}
	}

	args, err := i.resolveArgs(t, method, params, effective)
	if err != nil {
		return nil, err
	}

	if !ic.allow(instance, args, effective) {
		i.logger.Debug("guard vetoed method call", zap.Stringer("type", t), zap.String("method", method))
		i.metrics.methodCall(outcomeVetoed)
		return nil, nil
	}

	i.metrics.methodCall(outcomeInvoked)
	return ic.Body(instance, args)
}
