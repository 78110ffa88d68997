// Package gateway contains the agent dispatch core: the executor registry,
// the per-request execution bridge that translates one protocol task into
// one backend invocation, and the task store consumed by the HTTP layer.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dispatch-gateway/dispatch-gateway/a2a"
	"github.com/dispatch-gateway/dispatch-gateway/backend"
	"github.com/dispatch-gateway/dispatch-gateway/logger"
)

// RequestContext carries one task invocation from the protocol layer to the
// executor. It is owned by the request handler; executors only read it.
type RequestContext struct {
	TaskID    string
	ContextID string
	Message   *a2a.Message
}

// EventQueue is the per-request sink executors publish task events to. The
// queue is discarded after the response is finalized.
type EventQueue interface {
	Enqueue(ctx context.Context, event *a2a.TaskStatusUpdateEvent) error
	Close() error
}

// Executor handles a single task invocation against one agent. Instances are
// produced per request by the registry and retain no cross-request state.
type Executor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, queue EventQueue) error
	Cancel(ctx context.Context, reqCtx *RequestContext, queue EventQueue) error
}

// AgentHandle is the executor's view of one loaded backend agent.
type AgentHandle interface {
	Trigger(ctx context.Context, payload map[string]any) error
	Logs(ctx context.Context) ([]string, error)
}

// Runtime is the executor's view of the backend agent runtime.
type Runtime interface {
	LoadAgent(ctx context.Context, agentID string) (AgentHandle, error)
}

// backendRuntime adapts the shared backend client to the Runtime interface.
type backendRuntime struct {
	client *backend.Client
}

// NewBackendRuntime wraps the shared backend client for use by executors.
func NewBackendRuntime(client *backend.Client) Runtime {
	return &backendRuntime{client: client}
}

func (r *backendRuntime) LoadAgent(ctx context.Context, agentID string) (AgentHandle, error) {
	handle, err := r.client.LoadAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// BufferedEventQueue is a channel-backed EventQueue.
type BufferedEventQueue struct {
	events chan *a2a.TaskStatusUpdateEvent
	closed bool
	mu     sync.RWMutex
}

// NewBufferedEventQueue creates a queue with the given buffer size.
func NewBufferedEventQueue(size int) *BufferedEventQueue {
	return &BufferedEventQueue{
		events: make(chan *a2a.TaskStatusUpdateEvent, size),
	}
}

// Enqueue adds an event to the queue.
func (q *BufferedEventQueue) Enqueue(ctx context.Context, event *a2a.TaskStatusUpdateEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return errors.New("event queue is closed")
	}

	select {
	case q.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("event queue is full")
	}
}

// Close closes the queue. Enqueue fails afterwards.
func (q *BufferedEventQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		close(q.events)
		q.closed = true
	}
	return nil
}

// Events returns the receive side of the queue.
func (q *BufferedEventQueue) Events() <-chan *a2a.TaskStatusUpdateEvent {
	return q.events
}

// bridgeExecutor is the execution bridge for one agent identifier. It parses
// the task input with the agent's payload transform, invokes the backend
// runtime, and emits exactly one terminal event per invocation.
type bridgeExecutor struct {
	agentID   string
	runtime   Runtime
	transform PayloadTransform
	logger    logger.Logger
}

// NewBridgeExecutor creates an executor bound to the given agent identifier.
// The runtime is the long-lived shared backend connection; the transform is
// the agent's input parsing strategy.
func NewBridgeExecutor(agentID string, runtime Runtime, transform PayloadTransform, log logger.Logger) Executor {
	return &bridgeExecutor{
		agentID:   agentID,
		runtime:   runtime,
		transform: transform,
		logger:    log,
	}
}

// Execute dispatches one task to the backend agent. Failures never escape
// silently: every error path publishes a terminal failed event before the
// error is returned, so callers always observe exactly one terminal event.
func (e *bridgeExecutor) Execute(ctx context.Context, reqCtx *RequestContext, queue EventQueue) error {
	if reqCtx.Message == nil {
		err := fmt.Errorf("%w: request has no message", ErrInvalidPayload)
		return e.fail(ctx, reqCtx.TaskID, queue, err)
	}

	// Parse before touching the backend: a malformed input must not cost a
	// backend round trip.
	payload, err := e.transform(reqCtx.Message.Text())
	if err != nil {
		if !errors.Is(err, ErrInvalidPayload) {
			err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return e.fail(ctx, reqCtx.TaskID, queue, err)
	}

	// The handle is re-resolved on every dispatch rather than cached, so the
	// gateway always observes the latest backend-side agent state.
	handle, err := e.runtime.LoadAgent(ctx, e.agentID)
	if err != nil {
		err = fmt.Errorf("%w: loading agent %s: %v", ErrBackendUnavailable, e.agentID, err)
		return e.fail(ctx, reqCtx.TaskID, queue, err)
	}

	e.logger.Debug("invoking backend agent", "agent_id", e.agentID, "task_id", reqCtx.TaskID)
	if err := handle.Trigger(ctx, payload); err != nil {
		err = fmt.Errorf("%w: invoking agent %s: %v", ErrBackendUnavailable, e.agentID, err)
		return e.fail(ctx, reqCtx.TaskID, queue, err)
	}

	logs, err := handle.Logs(ctx)
	if err != nil {
		err = fmt.Errorf("%w: fetching output of agent %s: %v", ErrBackendUnavailable, e.agentID, err)
		return e.fail(ctx, reqCtx.TaskID, queue, err)
	}
	if len(logs) == 0 {
		err = fmt.Errorf("%w: agent %s produced no output", ErrBackendUnavailable, e.agentID)
		return e.fail(ctx, reqCtx.TaskID, queue, err)
	}

	// The last log record is the invocation result. Intermediate records are
	// not streamed; see the append-ordering note in DESIGN.md.
	result := logs[len(logs)-1]
	return queue.Enqueue(ctx, &a2a.TaskStatusUpdateEvent{
		TaskID: reqCtx.TaskID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Message:   a2a.NewAgentTextMessage(result),
			Timestamp: timestamp(),
		},
		Final: true,
	})
}

// Cancel terminates the invocation with a CancellationUnsupported failure.
// There is no cancellation channel into the backend runtime, so best-effort
// cancellation is not attempted.
func (e *bridgeExecutor) Cancel(ctx context.Context, reqCtx *RequestContext, queue EventQueue) error {
	err := fmt.Errorf("%w: agent %s", ErrCancellationUnsupported, e.agentID)
	if failErr := e.fail(ctx, reqCtx.TaskID, queue, err); failErr != nil {
		return failErr
	}
	return err
}

// fail publishes the terminal failed event for the task and returns the
// original error for the caller to map onto the wire.
func (e *bridgeExecutor) fail(ctx context.Context, taskID string, queue EventQueue, cause error) error {
	e.logger.Error("task dispatch failed", cause, "agent_id", e.agentID, "task_id", taskID)

	event := &a2a.TaskStatusUpdateEvent{
		TaskID: taskID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateFailed,
			Message:   a2a.NewAgentTextMessage(cause.Error()),
			Timestamp: timestamp(),
		},
		Final: true,
	}
	if err := queue.Enqueue(ctx, event); err != nil {
		e.logger.Error("failed to enqueue failure event", err, "task_id", taskID)
	}
	return cause
}

func timestamp() *time.Time {
	now := time.Now().UTC()
	return &now
}
