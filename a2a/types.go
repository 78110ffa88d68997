package a2a

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Part represents a component of a message. It is a union type discriminated
// by the Kind field ("text" or "data").
type Part struct {
	Kind     string         `json:"kind"`
	Text     *string        `json:"text,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// UnmarshalJSON validates that the content matching the declared kind is present.
func (p *Part) UnmarshalJSON(data []byte) error {
	type partAlias Part
	var temp partAlias
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	switch temp.Kind {
	case "text":
		if temp.Text == nil {
			return fmt.Errorf("text part missing 'text' field")
		}
	case "data":
		if temp.Data == nil {
			return fmt.Errorf("data part missing 'data' field")
		}
	default:
		return fmt.Errorf("unknown part kind: %s", temp.Kind)
	}

	*p = Part(temp)
	return nil
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: "text", Text: &text}
}

// Message represents a single protocol message in a task conversation.
type Message struct {
	Role      string         `json:"role"` // "user" or "agent"
	Parts     []Part         `json:"parts"`
	MessageID string         `json:"messageId,omitempty"`
	TaskID    *string        `json:"taskId,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Text returns the concatenated text content of the message parts.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == "text" && p.Text != nil {
			out += *p.Text
		}
	}
	return out
}

// NewAgentTextMessage builds an agent-role message carrying a single text part.
func NewAgentTextMessage(text string) *Message {
	return &Message{
		Role:      "agent",
		Parts:     []Part{TextPart(text)},
		MessageID: uuid.NewString(),
	}
}

// MessageSendParams carries the parameters of a message/send request.
type MessageSendParams struct {
	Message  Message        `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskState represents the possible states of a task.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateCanceled  TaskState = "canceled"
	TaskStateFailed    TaskState = "failed"
)

// TaskStatus represents the current status of a task.
type TaskStatus struct {
	State     TaskState  `json:"state"`
	Message   *Message   `json:"message,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Task represents the state and data associated with an agent task.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId,omitempty"`
	Status    TaskStatus     `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TaskIdParams provides parameters containing just a task ID.
type TaskIdParams struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TaskQueryParams provides parameters for querying a task.
type TaskQueryParams struct {
	ID            string         `json:"id"`
	HistoryLength *int           `json:"historyLength,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// TaskStatusUpdateEvent signals a change in task status. Exactly one event
// with Final=true terminates every dispatch.
type TaskStatusUpdateEvent struct {
	TaskID   string         `json:"taskId"`
	Status   TaskStatus     `json:"status"`
	Final    bool           `json:"final,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// JSONRPCRequest is a base structure for JSON-RPC requests.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"` // "2.0"
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is a base structure for JSON-RPC responses.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"` // "2.0"
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a standard JSON-RPC error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// JSON-RPC error codes used by the gateway. The -32000 range carries the
// protocol-defined task errors.
const (
	CodeParseError           = -32700
	CodeInvalidRequest       = -32600
	CodeMethodNotFound       = -32601
	CodeInvalidParams        = -32602
	CodeInternalError        = -32603
	CodeTaskNotFound         = -32001
	CodeBackendUnavailable   = -32003
	CodeUnsupportedOperation = -32004
)
