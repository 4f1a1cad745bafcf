package nasc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	// ErrNotInjectable matches any NotInjectableError via errors.Is.
	ErrNotInjectable = errors.New("nasc: type is not injectable")

	// ErrMissingInterception matches any MissingInterceptionError via errors.Is.
	ErrMissingInterception = errors.New("nasc: method is not marked for interception")

	// ErrNilInstance is returned when CallMethod receives a nil instance.
	ErrNilInstance = errors.New("nasc: nil instance")
)

// NotInjectableError is returned when a type that was never marked as
// injectable is resolved, directly or as a parameter.
type NotInjectableError struct {
	Type reflect.Type

	// Owner, Method and Param locate the parameter that requested Type.
	// Owner is nil for top-level resolutions and Param is -1 when unknown.
	Owner  reflect.Type
	Method string
	Param  int
}

func (e *NotInjectableError) Error() string {
	var site strings.Builder
	if e.Owner != nil {
		site.WriteString(e.Owner.String())
	} else {
		site.WriteString(typeName(e.Type))
	}
	if e.Method != "" {
		site.WriteString(".")
		site.WriteString(e.Method)
	}
	if e.Param >= 0 {
		fmt.Fprintf(&site, "[%d]", e.Param)
	}
	return fmt.Sprintf("type is not injectable (%s: %s)", site.String(), typeName(e.Type))
}

// Is reports whether target is ErrNotInjectable.
func (e *NotInjectableError) Is(target error) bool {
	return target == ErrNotInjectable
}

// MissingInterceptionError is returned when CallMethod targets a method
// without interception metadata.
type MissingInterceptionError struct {
	Type   reflect.Type
	Method string
}

func (e *MissingInterceptionError) Error() string {
	return fmt.Sprintf("can't call method %s.%s: it is not marked for interception", typeName(e.Type), e.Method)
}

// Is reports whether target is ErrMissingInterception.
func (e *MissingInterceptionError) Is(target error) bool {
	return target == ErrMissingInterception
}

// ResolutionError is returned when instance construction fails.
type ResolutionError struct {
	Type    reflect.Type
	Cause   error
	Context string
}

func (e *ResolutionError) Error() string {
	contextStr := ""
	if e.Context != "" {
		contextStr = fmt.Sprintf(": %s", e.Context)
	}

	causeStr := ""
	if e.Cause != nil {
		causeStr = fmt.Sprintf(": %v", e.Cause)
	}

	return fmt.Sprintf("failed to resolve %s%s%s", typeName(e.Type), contextStr, causeStr)
}

// Unwrap returns the underlying cause error.
func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// CircularDependencyError indicates the resolution depth limit was hit,
// which in practice means a cyclic import graph.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	if len(e.Path) == 0 {
		return "circular dependency detected"
	}
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// ArgumentTypeError is returned when a resolved argument cannot be passed
// as the declared parameter type.
type ArgumentTypeError struct {
	Index int
	Want  reflect.Type
	Got   reflect.Type
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("argument %d: %v is not assignable to %v", e.Index, e.Got, e.Want)
}

// TypeMismatchError is returned by Make and Cached when the resolved
// instance is not of the requested type.
type TypeMismatchError struct {
	Want reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("resolved instance of type %v is not a %v", e.Got, e.Want)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
