package registry

import (
	"fmt"
	"reflect"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

var errorInterface = reflect.TypeFor[error]()

// constructorInfo holds metadata about a constructor function.
type constructorInfo struct {
	fn         reflect.Value
	paramTypes []reflect.Type
	returnType reflect.Type
}

// parseConstructor analyzes a constructor function and extracts metadata.
// Supported signatures:
//   - func(Dep1, Dep2, ...) *T
//   - func(Dep1, Dep2, ...) (*T, error)
func parseConstructor(constructor any) (*constructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(constructor)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType.Kind())
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("constructor must not be variadic")
	}

	// Validate return values
	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return (*T) or (*T, error), got %d return values", numOut)
	}

	// First return value must be a pointer
	returnType := fnType.Out(0)
	if returnType.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("constructor must return a pointer, got %v", returnType.Kind())
	}

	if numOut == 2 && fnType.Out(1) != errorInterface {
		return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
	}

	paramTypes := make([]reflect.Type, fnType.NumIn())
	for i := range paramTypes {
		paramTypes[i] = fnType.In(i)
	}

	return &constructorInfo{
		fn:         fnValue,
		paramTypes: paramTypes,
		returnType: returnType,
	}, nil
}

// call invokes the constructor with resolved arguments.
// A nil pointer result is reported as a nil instance.
func (c *constructorInfo) call(args []any) (any, error) {
	values, err := nasc.ArgValues(args, c.paramTypes)
	if err != nil {
		return nil, err
	}
	return nasc.Results(c.fn.Call(values))
}
