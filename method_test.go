package nasc_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nasc "github.com/toutaio/toutago-nasc-resolver"
	"github.com/toutaio/toutago-nasc-resolver/registry"
)

type GuardedMethods struct {
	calls int
}

func (g *GuardedMethods) Plain() {}

func (g *GuardedMethods) GuardedMethod(foo, bar string) int {
	g.calls++
	return 123
}

func TestCallMethod_Guard(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Method((*GuardedMethods)(nil), "GuardedMethod",
		registry.InjectArg(0, "foo"),
		registry.InjectArg(1, "bar"),
		registry.WithGuard(func(instance any, args []any, d nasc.Descriptor) bool {
			_, ok := instance.(*GuardedMethods)
			return ok && args[1] == "ok" && d.Provides["ok"] == true
		}),
	))
	injector := nasc.New(reg)
	foo := &GuardedMethods{}

	out, err := injector.CallMethod(foo, "GuardedMethod", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Zero(t, foo.calls, "a vetoed method must not run")

	out, err = injector.CallMethod(foo, "GuardedMethod", nasc.Descriptor{
		Provides: nasc.Provides{"foo": "1", "bar": "ok", "ok": true},
	})
	require.NoError(t, err)
	assert.Equal(t, 123, out)
	assert.Equal(t, 1, foo.calls)
}

func TestCallMethod_GuardOrder(t *testing.T) {
	var steps []string

	reg := registry.New()
	require.NoError(t, reg.Method((*GuardedMethods)(nil), "GuardedMethod",
		registry.InjectArg(0, "foo"),
		registry.InjectArg(1, "bar"),
		registry.WithGuard(func(instance any, args []any, _ nasc.Descriptor) bool {
			if args[1] == nil {
				return false
			}
			steps = append(steps, "2")
			return true
		}),
		registry.WithGuard(func(instance any, args []any, _ nasc.Descriptor) bool {
			if args[0] == nil {
				return false
			}
			steps = append(steps, "1")
			return true
		}),
	))
	injector := nasc.New(reg)
	foo := &GuardedMethods{}

	tests := []struct {
		name     string
		provides nasc.Provides
		want     any
		steps    []string
	}{
		{"neither", nil, nil, nil},
		{"first only", nasc.Provides{"foo": "1"}, nil, []string{"1"}},
		{"second only", nasc.Provides{"bar": "1"}, nil, nil},
		{"both", nasc.Provides{"foo": "1", "bar": "1"}, 123, []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps = nil
			out, err := injector.CallMethod(foo, "GuardedMethod", nasc.Descriptor{Provides: tt.provides})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.steps, steps)
		})
	}
}

type Direct struct {
	id int
}

func (d *Direct) DirectCallMethod(a, b string) string {
	return fmt.Sprintf("hooked, %s, %s", a, b)
}

func TestDirectCall(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(func() *Direct { return &Direct{} }, nasc.Descriptor{}))
	require.NoError(t, reg.Method((*Direct)(nil), "DirectCallMethod",
		registry.InjectArg(0, "a"),
		registry.InjectArg(1, "b"),
		registry.OnDirectCall(func(_ nasc.Invoker, args ...any) (any, error) {
			if args[0] == "ok" && args[1] == "ok" {
				return fmt.Sprintf("direct call, %v, %v", args[0], args[1]), nil
			}
			return fmt.Sprintf("direct call and not ok, %v, %v", args[0], args[1]), nil
		}),
	))
	injector := nasc.New(reg)

	foo, err := nasc.Make[*Direct](injector, nasc.Descriptor{})
	require.NoError(t, err)

	out, err := injector.CallMethod(foo, "DirectCallMethod", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, "hooked, , ", out)

	out, err = injector.CallMethod(foo, "DirectCallMethod", nasc.Descriptor{Provides: nasc.Provides{"a": "ok", "b": "ok"}})
	require.NoError(t, err)
	assert.Equal(t, "hooked, ok, ok", out)

	out, err = reg.Call(foo, "DirectCallMethod", "ok", "ok")
	require.NoError(t, err)
	assert.Equal(t, "direct call, ok, ok", out)

	out, err = reg.Call(foo, "DirectCallMethod", "foo", "bar")
	require.NoError(t, err)
	assert.Equal(t, "direct call and not ok, foo, bar", out)
}

func TestDirectCall_ChainOrder(t *testing.T) {
	var steps []string

	reg := registry.New()
	require.NoError(t, reg.Method((*Direct)(nil), "DirectCallMethod",
		registry.InjectArg(0, "a"),
		registry.InjectArg(1, "b"),
		registry.OnDirectCall(func(next nasc.Invoker, args ...any) (any, error) {
			if args[1] == "ok" {
				steps = append(steps, "2")
			}
			return next(args...)
		}),
		registry.OnDirectCall(func(next nasc.Invoker, args ...any) (any, error) {
			if args[0] == "ok" {
				steps = append(steps, "1")
			}
			return next(args...)
		}),
	))
	injector := nasc.New(reg)
	foo := &Direct{}

	out, err := injector.CallMethod(foo, "DirectCallMethod", nasc.Descriptor{Provides: nasc.Provides{"a": "ok", "b": "ok"}})
	require.NoError(t, err)
	assert.Equal(t, "hooked, ok, ok", out)
	assert.Empty(t, steps, "CallMethod bypasses the direct-call chain")

	tests := []struct {
		a, b  string
		steps []string
	}{
		{"1", "2", nil},
		{"ok", "2", []string{"1"}},
		{"1", "ok", []string{"2"}},
		{"ok", "ok", []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			steps = nil
			out, err := reg.Call(foo, "DirectCallMethod", tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("hooked, %s, %s", tt.a, tt.b), out)
			assert.Equal(t, tt.steps, steps)
		})
	}
}

func TestDirectCall_OuterShortCircuits(t *testing.T) {
	innerRan := false

	reg := registry.New()
	require.NoError(t, reg.Method((*Direct)(nil), "DirectCallMethod",
		registry.OnDirectCall(func(next nasc.Invoker, args ...any) (any, error) {
			innerRan = true
			return next(args...)
		}),
		registry.OnDirectCall(func(next nasc.Invoker, args ...any) (any, error) {
			if args[0] == "stop" {
				return "stopped", nil
			}
			return next("rewritten", args[1])
		}),
	))
	foo := &Direct{}

	out, err := reg.Call(foo, "DirectCallMethod", "stop", "x")
	require.NoError(t, err)
	assert.Equal(t, "stopped", out)
	assert.False(t, innerRan)

	out, err = reg.Call(foo, "DirectCallMethod", "go", "x")
	require.NoError(t, err)
	assert.Equal(t, "hooked, rewritten, x", out)
	assert.True(t, innerRan)
}

type Tenanted struct {
	calls int
}

func (s *Tenanted) Tenant(tenant string, foo *Foo) (string, error) {
	if foo == nil {
		return "", errors.New("foo missing")
	}
	return tenant, nil
}

func (s *Tenanted) Owner(foo *Foo) *Foo {
	return foo
}

func (s *Tenanted) Fail() error {
	return errors.New("failed")
}

func TestCallMethod_RecordedDescriptor(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(func() *Foo { return &Foo{} }, nasc.Descriptor{}))
	require.NoError(t, reg.Register(func() *Tenanted { return &Tenanted{} }, nasc.Descriptor{Mode: nasc.ModeOnDemand}))
	require.NoError(t, reg.Method((*Tenanted)(nil), "Tenant", registry.InjectArg(0, "tenant")))
	injector := nasc.New(reg)

	svc, err := nasc.Make[*Tenanted](injector, nasc.Descriptor{Provides: nasc.Provides{"tenant": "acme"}})
	require.NoError(t, err)

	out, err := injector.CallMethod(svc, "Tenant", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, "acme", out, "provides recorded at construction apply to method calls")

	out, err = injector.CallMethod(svc, "Tenant", nasc.Descriptor{Provides: nasc.Provides{"tenant": "globex"}})
	require.NoError(t, err)
	assert.Equal(t, "globex", out)

	// Another injector has no record of svc.
	out, err = nasc.New(reg).CallMethod(svc, "Tenant", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

// Stateless carries no fields, so all of its instances share one address.
type Stateless struct{}

func (s *Stateless) Tenant(tenant string) string { return tenant }

type OtherStateless struct{}

func (s *OtherStateless) Tenant(tenant string) string { return tenant }

func TestCallMethod_ZeroSizeInstancesKeepNoRecord(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(func() *Stateless { return &Stateless{} }, nasc.Descriptor{Mode: nasc.ModeOnDemand}))
	require.NoError(t, reg.Register(func() *OtherStateless { return &OtherStateless{} }, nasc.Descriptor{Mode: nasc.ModeOnDemand}))
	require.NoError(t, reg.Method((*Stateless)(nil), "Tenant", registry.InjectArg(0, "tenant")))
	require.NoError(t, reg.Method((*OtherStateless)(nil), "Tenant", registry.InjectArg(0, "tenant")))
	injector := nasc.New(reg)

	a, err := nasc.Make[*Stateless](injector, nasc.Descriptor{Provides: nasc.Provides{"tenant": "acme"}})
	require.NoError(t, err)
	b, err := nasc.Make[*OtherStateless](injector, nasc.Descriptor{Provides: nasc.Provides{"tenant": "evil"}})
	require.NoError(t, err)

	out, err := injector.CallMethod(a, "Tenant", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, "", out, "another instance's provides must not leak in")

	out, err = injector.CallMethod(a, "Tenant", nasc.Descriptor{Provides: nasc.Provides{"tenant": "acme"}})
	require.NoError(t, err)
	assert.Equal(t, "acme", out)

	out, err = injector.CallMethod(b, "Tenant", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestCallMethod_ResolvesParametersByType(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(func() *Foo { return &Foo{id: 7} }, nasc.Descriptor{}))
	require.NoError(t, reg.Method((*Tenanted)(nil), "Owner"))
	injector := nasc.New(reg)

	foo, err := nasc.Make[*Foo](injector, nasc.Descriptor{})
	require.NoError(t, err)

	out, err := injector.CallMethod(&Tenanted{}, "Owner", nasc.Descriptor{})
	require.NoError(t, err)
	assert.Same(t, foo, out)
}

func TestCallMethod_DescriptorGuardDoesNotGateMethods(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(func() *Foo { return &Foo{} }, nasc.Descriptor{}))
	require.NoError(t, reg.Method((*Tenanted)(nil), "Tenant", registry.InjectArg(0, "tenant")))
	injector := nasc.New(reg)

	out, err := injector.CallMethod(&Tenanted{}, "Tenant", nasc.Descriptor{
		Provides: nasc.Provides{"tenant": "acme"},
		UseGuard: func(any, nasc.Descriptor) bool { return false },
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", out)
}

func TestCallMethod_BodyError(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Method((*Tenanted)(nil), "Fail"))
	injector := nasc.New(reg)

	out, err := injector.CallMethod(&Tenanted{}, "Fail", nasc.Descriptor{})
	assert.Nil(t, out)
	assert.EqualError(t, err, "failed")
}

func TestCallMethod_ParameterNotInjectable(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Method((*Tenanted)(nil), "Tenant", registry.InjectArg(0, "tenant")))
	injector := nasc.New(reg)

	_, err := injector.CallMethod(&Tenanted{}, "Tenant", nasc.Descriptor{})

	var notInjectable *nasc.NotInjectableError
	require.ErrorAs(t, err, &notInjectable)
	assert.Equal(t, "Tenant", notInjectable.Method)
	assert.Equal(t, 1, notInjectable.Param)
}

func TestCallMethod_MissingInterception(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Method((*GuardedMethods)(nil), "GuardedMethod"))
	injector := nasc.New(reg)

	_, err := injector.CallMethod(&GuardedMethods{}, "Plain", nasc.Descriptor{})
	require.ErrorIs(t, err, nasc.ErrMissingInterception)

	var missing *nasc.MissingInterceptionError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Plain", missing.Method)

	_, err = reg.Call(&GuardedMethods{}, "Plain")
	assert.ErrorIs(t, err, nasc.ErrMissingInterception)
}

func TestCallMethod_NilInstance(t *testing.T) {
	injector := nasc.New(registry.New())

	_, err := injector.CallMethod(nil, "Anything", nasc.Descriptor{})
	assert.ErrorIs(t, err, nasc.ErrNilInstance)
}
