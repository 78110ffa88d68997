package gateway

import "github.com/dispatch-gateway/dispatch-gateway/logger"

// RegisterBuiltins registers the executor factories for the agent types this
// gateway knows how to bridge. Each factory binds the shared backend runtime
// and the agent's payload transform; executors themselves are created per
// request by Resolve.
func RegisterBuiltins(registry *Registry, runtime Runtime, log logger.Logger) {
	registry.Register("add2-agent", func() Executor {
		return NewBridgeExecutor("add2-agent", runtime, IntegerPayload("value"), log)
	})

	registry.Register("echo-agent", func() Executor {
		return NewBridgeExecutor("echo-agent", runtime, TextPayload("text"), log)
	})
}
