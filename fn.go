package nasc

import (
	"fmt"
	"reflect"
)

// Fn builds a zero-argument wrapper around fn. Every call of the wrapper
// resolves params through Instantiate, in order, and applies fn to them.
// Nothing is cached between calls.
//
// params use Dep[T]() for a bare type or ImportOf[T](d) for a type with an
// override descriptor. fn may return (), (R), (error) or (R, error).
//
// Example:
//
//	report := injector.Fn(func(db *DB, cfg *Config) string {
//	    return db.Report(cfg.Region)
//	}, nasc.Dep[*DB](), nasc.ImportOf[*Config](nasc.Descriptor{Provides: nasc.Provides{"region": "eu"}}))
//	out, err := report()
func (i *Injector) Fn(fn any, params ...Import) func() (any, error) {
	fnValue := reflect.ValueOf(fn)

	var invalid error
	switch {
	case fnValue.Kind() != reflect.Func:
		invalid = fmt.Errorf("fn must be a function, got %T", fn)
	case fnValue.Type().IsVariadic():
		invalid = fmt.Errorf("fn must not be variadic")
	case fnValue.Type().NumIn() != len(params):
		invalid = fmt.Errorf("fn takes %d parameters, %d given", fnValue.Type().NumIn(), len(params))
	case fnValue.Type().NumOut() > 2:
		invalid = fmt.Errorf("fn must return at most (R, error), got %d results", fnValue.Type().NumOut())
	case fnValue.Type().NumOut() == 2 && fnValue.Type().Out(1) != errorType:
		invalid = fmt.Errorf("fn's second result must be error, got %v", fnValue.Type().Out(1))
	}

	return func() (any, error) {
		if invalid != nil {
			return nil, invalid
		}

		fnType := fnValue.Type()
		types := make([]reflect.Type, fnType.NumIn())
		args := make([]any, len(params))
		for ix, p := range params {
			types[ix] = fnType.In(ix)
			v, err := i.Instantiate(p.Type, p.Descriptor)
			if err != nil {
				return nil, err
			}
			args[ix] = v
		}

		values, err := ArgValues(args, types)
		if err != nil {
			return nil, err
		}
		return Results(fnValue.Call(values))
	}
}
