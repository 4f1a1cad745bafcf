package registry

import (
	"fmt"
	"reflect"
	"strings"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

// tagOptions represents parsed options from an inject tag.
type tagOptions struct {
	skip    bool   // Don't inject this field
	provide string // Read the field from Provides under this name
}

// parseInjectTag parses an inject struct tag and returns options.
// Supported formats:
//   - `inject:""` - resolve the field type
//   - `inject:"provide=name"` - read a provided value
//   - `inject:"-"` - skip the field
func parseInjectTag(tag string) tagOptions {
	opts := tagOptions{}

	if tag == "-" {
		opts.skip = true
		return opts
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if name, ok := strings.CutPrefix(part, "provide="); ok {
			opts.provide = name
		}
	}

	return opts
}

// fieldInfo stores metadata about a struct field filled by construction.
type fieldInfo struct {
	index   int
	name    string
	typ     reflect.Type
	options tagOptions
}

// structInfo constructs a pointer to struct by filling its tagged fields.
// Each injectable field is one constructor parameter, in field order.
type structInfo struct {
	typ    reflect.Type // pointer type
	fields []fieldInfo
}

// parseStruct scans a struct type for injectable fields.
// Only exported fields with an inject tag are considered.
func parseStruct(prototype any) (*structInfo, error) {
	if prototype == nil {
		return nil, fmt.Errorf("prototype cannot be nil")
	}

	typ := reflect.TypeOf(prototype)
	if typ.Kind() != reflect.Ptr || typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("prototype must be a pointer to struct, got %v", typ)
	}

	elem := typ.Elem()
	info := &structInfo{typ: typ}
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)

		tag, hasInjectTag := field.Tag.Lookup("inject")
		if !hasInjectTag {
			continue
		}
		if !field.IsExported() {
			return nil, fmt.Errorf("field %s is not settable (not exported?)", field.Name)
		}

		opts := parseInjectTag(tag)
		if opts.skip {
			continue
		}

		info.fields = append(info.fields, fieldInfo{
			index:   i,
			name:    field.Name,
			typ:     field.Type,
			options: opts,
		})
	}

	return info, nil
}

func (s *structInfo) paramTypes() []reflect.Type {
	types := make([]reflect.Type, len(s.fields))
	for i, f := range s.fields {
		types[i] = f.typ
	}
	return types
}

// paramFactories returns the InjectArg factories implied by provide= tags.
func (s *structInfo) paramFactories() map[int]nasc.ParamFactory {
	factories := make(map[int]nasc.ParamFactory)
	for i, f := range s.fields {
		if f.options.provide != "" {
			factories[i] = nasc.InjectArg(f.options.provide)
		}
	}
	return factories
}

// call allocates the struct and sets each injectable field.
func (s *structInfo) call(args []any) (any, error) {
	values, err := nasc.ArgValues(args, s.paramTypes())
	if err != nil {
		return nil, err
	}

	instance := reflect.New(s.typ.Elem())
	elem := instance.Elem()
	for i, f := range s.fields {
		elem.Field(f.index).Set(values[i])
	}
	return instance.Interface(), nil
}
