// Package backend implements the HTTP client for the agent runtime that
// performs the actual agent work. The gateway resolves an agent handle per
// dispatch, triggers its webhook entry point, and reads its log records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dispatch-gateway/dispatch-gateway/config"
	"github.com/dispatch-gateway/dispatch-gateway/logger"
)

// ErrAgentNotFound indicates the backend runtime has no agent registered
// under the requested identifier.
var ErrAgentNotFound = errors.New("backend agent not found")

// Client is the shared connection to the backend agent runtime. It is
// immutable after construction and safe for concurrent use; every executor
// instance holds the same client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	maxRetries   int
	retryBackoff time.Duration
	logger       logger.Logger
}

// NewClient creates a backend client from the given configuration.
func NewClient(cfg *config.BackendConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       log,
	}
}

// AgentHandle is a live reference to one backend agent, valid for a single
// dispatch. Handles are re-resolved on every invocation so the gateway always
// talks to the latest backend-side agent state.
type AgentHandle struct {
	ID     string
	client *Client
}

type agentInfo struct {
	ID    string `json:"id"`
	State string `json:"state,omitempty"`
}

type logsEnvelope struct {
	Logs []string `json:"logs"`
}

// LoadAgent resolves a handle for the given agent identifier.
func (c *Client) LoadAgent(ctx context.Context, agentID string) (*AgentHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/agents/%s", c.baseURL, agentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build load request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend runtime: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentID)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("backend returned status %d loading agent %s", resp.StatusCode, agentID)
	}

	var info agentInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode agent info: %w", err)
	}
	if info.ID != "" && info.ID != agentID {
		return nil, fmt.Errorf("backend returned agent %q for identifier %q", info.ID, agentID)
	}

	return &AgentHandle{ID: agentID, client: c}, nil
}

// Trigger invokes the agent's synchronous webhook entry point with the given
// payload. Transport failures and 5xx responses are retried with exponential
// backoff up to the configured bound; 4xx responses are not retried.
func (h *AgentHandle) Trigger(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	url := fmt.Sprintf("%s/agents/%s/webhook", h.client.baseURL, h.ID)
	backoff := h.client.retryBackoff

	var lastErr error
	for attempt := 0; attempt <= h.client.maxRetries; attempt++ {
		if attempt > 0 {
			h.client.logger.Warn("retrying backend invocation",
				"agent_id", h.ID, "attempt", attempt)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		lastErr = h.trigger(ctx, url, body)
		if lastErr == nil {
			return nil
		}
		var permanent *permanentError
		if errors.As(lastErr, &permanent) {
			return permanent.err
		}
	}

	return fmt.Errorf("backend invocation failed after %d attempts: %w", h.client.maxRetries+1, lastErr)
}

// permanentError marks a failure that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func (h *AgentHandle) trigger(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &permanentError{err: fmt.Errorf("failed to build trigger request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend runtime: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return &permanentError{err: fmt.Errorf("backend rejected invocation with status %d", resp.StatusCode)}
	}

	return nil
}

// Logs returns the ordered log records the backend produced for this agent.
func (h *AgentHandle) Logs(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/agents/%s/logs", h.client.baseURL, h.ID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build logs request: %w", err)
	}

	resp, err := h.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d fetching logs for %s", resp.StatusCode, h.ID)
	}

	var envelope logsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode logs: %w", err)
	}

	return envelope.Logs, nil
}
