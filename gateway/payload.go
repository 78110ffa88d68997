package gateway

import (
	"fmt"
	"strconv"
	"strings"
)

// PayloadTransform converts the raw user input of a task into the payload
// map the backend agent expects. Each agent type binds its own transform;
// a malformed input fails with ErrInvalidPayload instead of reaching the
// backend.
type PayloadTransform func(input string) (map[string]any, error)

// IntegerPayload parses the input as a decimal integer and wraps it under
// the given key. Used by arithmetic agents such as add2-agent.
func IntegerPayload(key string) PayloadTransform {
	return func(input string) (map[string]any, error) {
		value, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil {
			return nil, fmt.Errorf("%w: expected integer, got %q", ErrInvalidPayload, input)
		}
		return map[string]any{key: value}, nil
	}
}

// TextPayload passes the input through unparsed under the given key, for
// agents that accept free-form text.
func TextPayload(key string) PayloadTransform {
	return func(input string) (map[string]any, error) {
		if strings.TrimSpace(input) == "" {
			return nil, fmt.Errorf("%w: empty input", ErrInvalidPayload)
		}
		return map[string]any{key: input}, nil
	}
}
