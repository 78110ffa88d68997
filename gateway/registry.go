package gateway

import (
	"fmt"
	"sort"
)

// ExecutorFactory produces a fresh executor for one task dispatch. Factories
// are registered once at boot; resolution happens per request so that no
// mutable executor state is ever shared between concurrent invocations.
type ExecutorFactory func() Executor

// Registry maps agent identifiers to executor factories. It is populated
// before the server accepts requests and treated as read-only afterwards, so
// no locking is required on the request path.
type Registry struct {
	factories map[string]ExecutorFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ExecutorFactory),
	}
}

// Register binds the factory to the given agent identifier. Registering the
// same identifier twice keeps the most recent factory (last write wins).
func (r *Registry) Register(agentID string, factory ExecutorFactory) {
	r.factories[agentID] = factory
}

// Resolve produces a fresh executor for the given agent identifier. Unknown
// identifiers fail with ErrNotRegistered; a default executor is never
// constructed silently.
func (r *Registry) Resolve(agentID string) (Executor, error) {
	factory, ok := r.factories[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, agentID)
	}
	return factory(), nil
}

// IDs returns the registered agent identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
