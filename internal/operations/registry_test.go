package operations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlprep/internal/operations"
)

func noop(id string, deps ...string) operations.Step {
	return operations.NewFuncStep(id, id, func(context.Context, *operations.RunState) error { return nil }, deps...)
}

func stepIDs(steps []operations.Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistryRegister(t *testing.T) {
	registry := operations.NewRegistry()
	require.NoError(t, registry.Register(noop("a")))
	require.NoError(t, registry.Register(noop("b")))

	assert.Equal(t, []string{"a", "b"}, registry.ListIDs())

	ids := registry.ListIDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, registry.ListIDs())
}

func TestRegistryRegisterErrors(t *testing.T) {
	registry := operations.NewRegistry()

	assert.Error(t, registry.Register(nil))
	assert.Error(t, registry.Register(noop("")))
	require.NoError(t, registry.Register(noop("a")))
	assert.Error(t, registry.Register(noop("a")))
	assert.Panics(t, func() { registry.MustRegister(noop("a")) })
}

func TestRegistryDependencyOrder(t *testing.T) {
	registry := operations.NewRegistry().MustRegister(
		noop(operations.StepIDExport, operations.StepIDSplit),
		noop(operations.StepIDSplit, operations.StepIDFeatures),
		noop(operations.StepIDLoad),
		noop(operations.StepIDFeatures, operations.StepIDClean),
		noop(operations.StepIDClean, operations.StepIDLoad),
	)

	ordered, err := registry.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"load", "clean", "features", "split", "export"}, stepIDs(ordered))
}

func TestRegistryDependencyOrder_RegistrationOrderTieBreak(t *testing.T) {
	registry := operations.NewRegistry().MustRegister(
		noop("root"),
		noop("z", "root"),
		noop("a", "root"),
	)

	ordered, err := registry.GetDependencyOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "z", "a"}, stepIDs(ordered))
}

func TestRegistryDependencyOrder_Errors(t *testing.T) {
	missing := operations.NewRegistry().MustRegister(noop("a", "ghost"))
	_, err := missing.GetDependencyOrder()
	assert.ErrorContains(t, err, "non-existent")

	cycle := operations.NewRegistry().MustRegister(noop("a", "b"), noop("b", "a"))
	_, err = cycle.GetDependencyOrder()
	assert.ErrorContains(t, err, "cycle")
}
