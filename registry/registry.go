// Package registry provides thread-safe, explicit-registration storage of
// injectable types, their descriptors and their marked methods.
//
// A Registry is both the descriptor store and the type registry consumed
// by nasc.Injector.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

// Binding describes how an injectable type is declared and constructed.
type Binding struct {
	// Type is the identity the binding is registered under (e.g. *Service
	// or the Logger interface).
	Type reflect.Type

	// Descriptor is the declared recipe for Type.
	Descriptor nasc.Descriptor

	// ParamTypes are the constructor parameter types in declaration order.
	ParamTypes []reflect.Type

	factories map[int]nasc.ParamFactory
	construct func(args []any) (any, error)
}

type methodBinding struct {
	paramTypes   []reflect.Type
	factories    map[int]nasc.ParamFactory
	interception nasc.Interception
}

// Registry provides thread-safe storage for bindings.
// It uses maps with reflect.Type keys for O(1) lookup performance.
type Registry struct {
	mu       sync.RWMutex
	bindings map[reflect.Type]*Binding
	methods  map[reflect.Type]map[string]*methodBinding
	modules  []Module
}

// New creates a new Registry instance.
func New() *Registry {
	return &Registry{
		bindings: make(map[reflect.Type]*Binding),
		methods:  make(map[reflect.Type]map[string]*methodBinding),
	}
}

// Register marks the return type of constructor as injectable.
// The constructor's parameters are resolved by the injector.
//
// Supported constructor signatures:
//   - func() *Service
//   - func(Logger, *Database) *Service
//   - func(Logger, *Database) (*Service, error)
//
// Example:
//
//	reg.Register(NewUserService, nasc.Descriptor{Mode: nasc.ModeOnDemand},
//	    registry.InjectArg(2, "tenant"))
func (r *Registry) Register(constructor any, d nasc.Descriptor, opts ...Option) error {
	info, err := parseConstructor(constructor)
	if err != nil {
		return &InvalidBindingError{Reason: fmt.Sprintf("invalid constructor: %v", err)}
	}

	o, err := applyOptions(opts, kindType)
	if err != nil {
		return err
	}

	key, err := o.key(info.returnType)
	if err != nil {
		return err
	}

	return r.add(&Binding{
		Type:       key,
		Descriptor: d,
		ParamTypes: info.paramTypes,
		factories:  o.factories,
		construct:  info.call,
	})
}

// RegisterStruct marks a pointer-to-struct type as injectable. The
// injectable fields, tagged `inject`, are its constructor parameters in
// field order.
//
// Example:
//
//	type Service struct {
//	    DB     *Database `inject:""`
//	    Tenant string    `inject:"provide=tenant"`
//	    cache  map[string]string
//	}
//
//	reg.RegisterStruct((*Service)(nil), nasc.Descriptor{})
func (r *Registry) RegisterStruct(prototype any, d nasc.Descriptor, opts ...Option) error {
	info, err := parseStruct(prototype)
	if err != nil {
		return &InvalidBindingError{Reason: err.Error()}
	}

	o, err := applyOptions(opts, kindType)
	if err != nil {
		return err
	}

	key, err := o.key(info.typ)
	if err != nil {
		return err
	}

	factories := info.paramFactories()
	for ix, f := range o.factories {
		factories[ix] = f
	}

	return r.add(&Binding{
		Type:       key,
		Descriptor: d,
		ParamTypes: info.paramTypes(),
		factories:  factories,
		construct:  info.call,
	})
}

func (r *Registry) add(b *Binding) error {
	if err := checkFactories(b.factories, len(b.ParamTypes)); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[b.Type]; exists {
		return &BindingAlreadyExistsError{Type: b.Type}
	}

	r.bindings[b.Type] = b
	return nil
}

// Method marks a method of the prototype's type as callable through
// nasc.Injector.CallMethod. Guards and direct-call handlers are attached
// in option order; the last one attached runs first.
//
// Example:
//
//	reg.Method((*Service)(nil), "Handle",
//	    registry.InjectArg(0, "requestID"),
//	    registry.WithGuard(onlyAuthenticated),
//	    registry.OnDirectCall(logCalls),
//	)
func (r *Registry) Method(prototype any, name string, opts ...Option) error {
	if prototype == nil {
		return &InvalidBindingError{Reason: "prototype cannot be nil"}
	}
	typ := reflect.TypeOf(prototype)

	m, ok := typ.MethodByName(name)
	if !ok {
		return &InvalidBindingError{Reason: fmt.Sprintf("type %v has no exported method %q", typ, name)}
	}
	if err := checkMethodSignature(m.Type); err != nil {
		return &InvalidBindingError{Reason: fmt.Sprintf("method %v.%s: %v", typ, name, err)}
	}

	o, err := applyOptions(opts, kindMethod)
	if err != nil {
		return err
	}

	// m.Type includes the receiver as its first parameter.
	paramTypes := make([]reflect.Type, m.Type.NumIn()-1)
	for i := range paramTypes {
		paramTypes[i] = m.Type.In(i + 1)
	}
	if err := checkFactories(o.factories, len(paramTypes)); err != nil {
		return err
	}

	fn := m.Func
	binding := &methodBinding{
		paramTypes: paramTypes,
		factories:  o.factories,
		interception: nasc.Interception{
			Guards: o.guards,
			Chain:  o.chain,
			Body: func(instance any, args []any) (any, error) {
				values, err := nasc.ArgValues(args, paramTypes)
				if err != nil {
					return nil, err
				}
				in := append([]reflect.Value{reflect.ValueOf(instance)}, values...)
				return nasc.Results(fn.Call(in))
			},
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.methods[typ] == nil {
		r.methods[typ] = make(map[string]*methodBinding)
	}
	if _, exists := r.methods[typ][name]; exists {
		return &BindingAlreadyExistsError{Type: typ, Method: name}
	}
	r.methods[typ][name] = binding
	return nil
}

// Call invokes a marked method directly, through its direct-call chain.
//
// Example:
//
//	out, err := reg.Call(svc, "Handle", "req-1")
func (r *Registry) Call(instance any, method string, args ...any) (any, error) {
	if instance == nil {
		return nil, nasc.ErrNilInstance
	}
	t := reflect.TypeOf(instance)

	ic, ok := r.MethodInterception(t, method)
	if !ok {
		return nil, &nasc.MissingInterceptionError{Type: t, Method: method}
	}
	return ic.Direct(instance, args...)
}

// Get retrieves a binding by its type.
//
// This method is goroutine-safe.
func (r *Registry) Get(t reflect.Type) (*Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, exists := r.bindings[t]
	if !exists {
		return nil, &BindingNotFoundError{Type: t}
	}
	return binding, nil
}

// Has checks if a binding exists for the given type.
//
// This method is goroutine-safe.
func (r *Registry) Has(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.bindings[t]
	return exists
}

// Types returns all registered types.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]reflect.Type, 0, len(r.bindings))
	for t := range r.bindings {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].String() < types[j].String() })
	return types
}

// Methods returns the names of the marked methods of t, sorted.
func (r *Registry) Methods(t reflect.Type) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods[t]))
	for name := range r.methods[t] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsInjectable implements nasc.DescriptorStore.
func (r *Registry) IsInjectable(t reflect.Type) bool {
	return r.Has(t)
}

// DeclaredDescriptor implements nasc.DescriptorStore.
func (r *Registry) DeclaredDescriptor(t reflect.Type) (nasc.Descriptor, bool) {
	b, err := r.Get(t)
	if err != nil {
		return nasc.Descriptor{}, false
	}
	return b.Descriptor, true
}

// ParamFactory implements nasc.DescriptorStore.
func (r *Registry) ParamFactory(owner reflect.Type, method string, index int) nasc.ParamFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if method == "" {
		if b, ok := r.bindings[owner]; ok {
			return b.factories[index]
		}
		return nil
	}
	if m, ok := r.methods[owner][method]; ok {
		return m.factories[index]
	}
	return nil
}

// MethodInterception implements nasc.DescriptorStore.
func (r *Registry) MethodInterception(t reflect.Type, method string) (*nasc.Interception, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.methods[t][method]
	if !ok {
		return nil, false
	}
	ic := m.interception
	return &ic, true
}

// ParamTypes implements nasc.TypeRegistry.
func (r *Registry) ParamTypes(t reflect.Type) ([]reflect.Type, error) {
	b, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	return b.ParamTypes, nil
}

// MethodParamTypes implements nasc.TypeRegistry.
func (r *Registry) MethodParamTypes(t reflect.Type, method string) ([]reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.methods[t][method]
	if !ok {
		return nil, &BindingNotFoundError{Type: t, Method: method}
	}
	return m.paramTypes, nil
}

// Construct implements nasc.TypeRegistry.
func (r *Registry) Construct(t reflect.Type, args []any) (any, error) {
	b, err := r.Get(t)
	if err != nil {
		return nil, err
	}
	return b.construct(args)
}

func checkFactories(factories map[int]nasc.ParamFactory, numParams int) error {
	for ix := range factories {
		if ix < 0 || ix >= numParams {
			return &InvalidBindingError{Reason: fmt.Sprintf("parameter index %d out of range (%d parameters)", ix, numParams)}
		}
	}
	return nil
}

func checkMethodSignature(fnType reflect.Type) error {
	if fnType.IsVariadic() {
		return fmt.Errorf("variadic methods are not supported")
	}
	switch fnType.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if fnType.Out(1) != errorInterface {
			return fmt.Errorf("second return value must be error, got %v", fnType.Out(1))
		}
		return nil
	default:
		return fmt.Errorf("must return at most (R, error), got %d return values", fnType.NumOut())
	}
}
