package nasc

import "reflect"

var errorType = reflect.TypeFor[error]()

// ArgValues converts resolved arguments into call values for the given
// parameter types. nil becomes the zero value of the parameter type.
// Numeric values convert across numeric kinds, so a Provides entry decoded
// as int can feed an int64 parameter.
func ArgValues(args []any, types []reflect.Type) ([]reflect.Value, error) {
	values := make([]reflect.Value, len(types))
	for ix, t := range types {
		var arg any
		if ix < len(args) {
			arg = args[ix]
		}
		if arg == nil {
			values[ix] = reflect.Zero(t)
			continue
		}

		v := reflect.ValueOf(arg)
		switch {
		case v.Type().AssignableTo(t):
			values[ix] = v
		case isNumeric(v.Kind()) && isNumeric(t.Kind()):
			values[ix] = v.Convert(t)
		default:
			return nil, &ArgumentTypeError{Index: ix, Want: t, Got: v.Type()}
		}
	}
	return values, nil
}

// Results interprets the results of a reflective call.
// Supported shapes are (), (R), (error) and (R, error).
func Results(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			return nil, asError(out[0])
		}
		return valueOf(out[0]), nil
	default:
		return valueOf(out[0]), asError(out[len(out)-1])
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}

func valueOf(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}
	return v.Interface()
}

func isNil(instance any) bool {
	if instance == nil {
		return true
	}
	v := reflect.ValueOf(instance)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
