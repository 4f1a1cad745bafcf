package nasc

import (
	"reflect"
	"runtime"
	"sync"
	"unsafe"
	"weak"
)

// association links a live instance to the descriptor that produced it.
// seq identifies the registration so a late cleanup never removes a newer
// entry stored under a reused address. ref tells a live re-association of
// the same object apart from a new object at a reused address.
type association struct {
	seq        uint64
	ref        weak.Pointer[byte]
	descriptor Descriptor
}

type cleanupKey struct {
	addr uintptr
	seq  uint64
}

// instanceRegistry owns the singleton cache and the weak
// instance-to-descriptor table of one Injector.
//
// The table is keyed by address and never references the instance itself.
// A runtime cleanup attached to each instance drops its entry once the
// instance is unreachable. Re-associating a live instance replaces its
// descriptor in place and attaches no further cleanup. Cleanups run on a
// separate goroutine, hence the mutex.
//
// The descriptor itself is held strongly. A descriptor whose Provides or
// guard and factory closures reference its own instance keeps that instance
// reachable, so its entry is never dropped.
//
// Pointers to zero-size types all share one address and get no entry.
type instanceRegistry struct {
	mu          sync.Mutex
	singletons  map[reflect.Type]any
	order       []reflect.Type
	descriptors map[uintptr]association
	seq         uint64
	pending     int
}

func newInstanceRegistry() *instanceRegistry {
	return &instanceRegistry{
		singletons:  make(map[reflect.Type]any),
		descriptors: make(map[uintptr]association),
	}
}

// singleton returns the cached instance for t.
func (r *instanceRegistry) singleton(t reflect.Type) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.singletons[t]
	return instance, ok
}

// storeSingleton caches instance as the singleton of t.
func (r *instanceRegistry) storeSingleton(t reflect.Type, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.singletons[t]; !exists {
		r.order = append(r.order, t)
	}
	r.singletons[t] = instance
}

// associate records d as the descriptor that produced instance.
// Only non-nil pointers to sized values carry an identity; other values are
// not recorded and associate reports false.
func (r *instanceRegistry) associate(instance any, d Descriptor) bool {
	ptr, ok := identityOf(instance)
	if !ok {
		return false
	}
	addr := uintptr(ptr)
	target := (*byte)(ptr)

	r.mu.Lock()
	if a, ok := r.descriptors[addr]; ok && a.ref.Value() == target {
		a.descriptor = d
		r.descriptors[addr] = a
		r.mu.Unlock()
		return true
	}
	r.seq++
	seq := r.seq
	r.descriptors[addr] = association{seq: seq, ref: weak.Make(target), descriptor: d}
	r.pending++
	r.mu.Unlock()

	runtime.AddCleanup(target, r.forget, cleanupKey{addr: addr, seq: seq})
	return true
}

// descriptorOf returns the descriptor recorded for instance.
func (r *instanceRegistry) descriptorOf(instance any) (Descriptor, bool) {
	ptr, ok := identityOf(instance)
	if !ok {
		return Descriptor{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.descriptors[uintptr(ptr)]
	return a.descriptor, ok
}

func (r *instanceRegistry) forget(key cleanupKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending--
	if a, ok := r.descriptors[key.addr]; ok && a.seq == key.seq {
		delete(r.descriptors, key.addr)
	}
}

// creationOrder returns the cached singletons oldest first.
func (r *instanceRegistry) creationOrder() []any {
	r.mu.Lock()
	defer r.mu.Unlock()

	instances := make([]any, 0, len(r.order))
	for _, t := range r.order {
		instances = append(instances, r.singletons[t])
	}
	return instances
}

// reset drops every singleton and association at once. seq keeps counting
// so cleanups of dropped entries stay no-ops.
func (r *instanceRegistry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.singletons = make(map[reflect.Type]any)
	r.order = nil
	r.descriptors = make(map[uintptr]association)
}

func (r *instanceRegistry) counts() (singletons, associations, cleanups int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.singletons), len(r.descriptors), r.pending
}

func identityOf(instance any) (unsafe.Pointer, bool) {
	if instance == nil {
		return nil, false
	}
	v := reflect.ValueOf(instance)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Type().Elem().Size() == 0 {
		return nil, false
	}
	return v.UnsafePointer(), true
}
