package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dispatch-gateway/dispatch-gateway/config"
	"github.com/dispatch-gateway/dispatch-gateway/logger"
)

type recordingTelemetry struct {
	agentIDs []string
	outcomes []string
}

func (r *recordingTelemetry) Init(cfg config.Config) error { return nil }

func (r *recordingTelemetry) RecordDispatch(ctx context.Context, agentID string, outcome string, durationMs float64) {
	r.agentIDs = append(r.agentIDs, agentID)
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingTelemetry) Handler() http.Handler { return http.NotFoundHandler() }

func TestTelemetryMiddlewareRecordsRPCRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := &recordingTelemetry{}
	mw, err := NewTelemetryMiddleware(config.Config{}, recorder, logger.NewNoOpLogger())
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(mw.Middleware())
	engine.POST("/add2-agent/a2a", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add2-agent/a2a", nil))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Len(t, recorder.agentIDs, 1, "only RPC paths are recorded")
	assert.Equal(t, "add2-agent", recorder.agentIDs[0])
	assert.Equal(t, "success", recorder.outcomes[0])
}

func TestTelemetryMiddlewareRecordsFailedDispatch(t *testing.T) {
	gin.SetMode(gin.TestMode)

	recorder := &recordingTelemetry{}
	mw, err := NewTelemetryMiddleware(config.Config{}, recorder, logger.NewNoOpLogger())
	require.NoError(t, err)

	// RPC failures travel as HTTP 200 with a JSON-RPC error object.
	engine := gin.New()
	engine.Use(mw.Middleware())
	engine.POST("/add2-agent/a2a", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"jsonrpc": "2.0",
			"id":      "req-1",
			"error":   gin.H{"code": -32003, "message": "backend unavailable"},
		})
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add2-agent/a2a", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, recorder.outcomes, 1)
	assert.Equal(t, "error", recorder.outcomes[0])
}

func TestDispatchOutcome(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "rpc result", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":"1","result":{}}`, expected: "success"},
		{name: "rpc error", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":"1","error":{"code":-32602,"message":"invalid"}}`, expected: "error"},
		{name: "explicit null error", status: http.StatusOK, body: `{"jsonrpc":"2.0","id":"1","result":{},"error":null}`, expected: "success"},
		{name: "non-200 status", status: http.StatusInternalServerError, body: ``, expected: "error"},
		{name: "unparseable body", status: http.StatusOK, body: `{broken`, expected: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, dispatchOutcome(tt.status, []byte(tt.body)))
		})
	}
}

func TestTelemetryMiddlewareNilBackendPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mw, err := NewTelemetryMiddleware(config.Config{}, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	engine := gin.New()
	engine.Use(mw.Middleware())
	engine.POST("/add2-agent/a2a", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/add2-agent/a2a", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAgentIDFromPath(t *testing.T) {
	assert.Equal(t, "add2-agent", agentIDFromPath("/add2-agent/a2a"))
	assert.Equal(t, "echo-agent", agentIDFromPath("/echo-agent/a2a"))
	assert.True(t, isRPCPath("/add2-agent/a2a"))
	assert.False(t, isRPCPath("/health"))
	assert.False(t, isRPCPath("/add2-agent/.well-known/agent.json"))
}
