package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-gateway/dispatch-gateway/gateway"
)

type nopExecutor struct {
	name string
}

func (e *nopExecutor) Execute(ctx context.Context, reqCtx *gateway.RequestContext, queue gateway.EventQueue) error {
	return nil
}

func (e *nopExecutor) Cancel(ctx context.Context, reqCtx *gateway.RequestContext, queue gateway.EventQueue) error {
	return nil
}

func TestRegistryResolve(t *testing.T) {
	registry := gateway.NewRegistry()
	registry.Register("add2-agent", func() gateway.Executor {
		return &nopExecutor{name: "add2-agent"}
	})

	executor, err := registry.Resolve("add2-agent")
	require.NoError(t, err)
	assert.Equal(t, "add2-agent", executor.(*nopExecutor).name)
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := gateway.NewRegistry()

	executor, err := registry.Resolve("ghost-agent")
	assert.Nil(t, executor)
	require.Error(t, err)
	assert.ErrorIs(t, err, gateway.ErrNotRegistered)
	assert.Contains(t, err.Error(), "ghost-agent")
}

func TestRegistryLastWriteWins(t *testing.T) {
	registry := gateway.NewRegistry()
	registry.Register("add2-agent", func() gateway.Executor {
		return &nopExecutor{name: "first"}
	})
	registry.Register("add2-agent", func() gateway.Executor {
		return &nopExecutor{name: "second"}
	})

	assert.Equal(t, []string{"add2-agent"}, registry.IDs())

	executor, err := registry.Resolve("add2-agent")
	require.NoError(t, err)
	assert.Equal(t, "second", executor.(*nopExecutor).name)
}

func TestRegistryResolveReturnsFreshInstances(t *testing.T) {
	registry := gateway.NewRegistry()
	registry.Register("add2-agent", func() gateway.Executor {
		return &nopExecutor{name: "add2-agent"}
	})

	first, err := registry.Resolve("add2-agent")
	require.NoError(t, err)
	second, err := registry.Resolve("add2-agent")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

func TestRegistryIDsSorted(t *testing.T) {
	registry := gateway.NewRegistry()
	factory := func() gateway.Executor { return &nopExecutor{} }
	registry.Register("zeta-agent", factory)
	registry.Register("add2-agent", factory)
	registry.Register("echo-agent", factory)

	assert.Equal(t, []string{"add2-agent", "echo-agent", "zeta-agent"}, registry.IDs())
}
