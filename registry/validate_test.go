package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	nasc "github.com/toutaio/toutago-nasc-resolver"
)

func TestValidate_Complete(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(func() *testDependency { return &testDependency{} }, nasc.Descriptor{}))
	require.NoError(t, reg.Register(newTestImplementation, nasc.Descriptor{
		Imports: []nasc.Import{nasc.Dep[*testDependency]()},
	}, InjectArg(1, "name")))
	require.NoError(t, reg.Method((*testImplementation)(nil), "Rename", InjectArg(0, "name")))

	assert.NoError(t, reg.Validate())
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register(newTestImplementation, nasc.Descriptor{
		Imports: []nasc.Import{nasc.Dep[*taggedService]()},
	}))
	require.NoError(t, reg.Method((*testImplementation)(nil), "Rename"))

	err := reg.Validate()
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 4)

	implType := reflect.TypeOf(&testImplementation{})
	var sites []string
	for _, e := range errs {
		assert.ErrorIs(t, e, nasc.ErrNotInjectable)
		var notInjectable *nasc.NotInjectableError
		require.ErrorAs(t, e, &notInjectable)
		if notInjectable.Owner != nil {
			assert.Equal(t, implType, notInjectable.Owner)
		}
		sites = append(sites, e.Error())
	}

	assert.Contains(t, sites, "type is not injectable (*registry.testImplementation[0]: *registry.testDependency)")
	assert.Contains(t, sites, "type is not injectable (*registry.testImplementation[1]: string)")
	assert.Contains(t, sites, "type is not injectable (*registry.testImplementation.Rename[0]: string)")
	assert.Contains(t, sites, "*registry.testImplementation imports type is not injectable (*registry.taggedService: *registry.taggedService)")
}
