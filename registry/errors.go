package registry

import (
	"fmt"
	"reflect"
)

// InvalidBindingError is returned when a registration has invalid parameters.
type InvalidBindingError struct {
	Reason string
}

func (e *InvalidBindingError) Error() string {
	return fmt.Sprintf("invalid binding: %s", e.Reason)
}

// BindingAlreadyExistsError is returned when attempting to register a duplicate binding.
type BindingAlreadyExistsError struct {
	Type   reflect.Type
	Method string
}

func (e *BindingAlreadyExistsError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("method %v.%s is already registered", e.Type, e.Method)
	}
	return fmt.Sprintf("binding already exists for type %v", e.Type)
}

// BindingNotFoundError is returned when a requested binding does not exist.
type BindingNotFoundError struct {
	Type   reflect.Type
	Method string
}

func (e *BindingNotFoundError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("method %v.%s is not registered", e.Type, e.Method)
	}
	return fmt.Sprintf("binding not found for type %v", e.Type)
}
