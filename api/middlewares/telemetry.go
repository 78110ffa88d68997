package middlewares

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dispatch-gateway/dispatch-gateway/config"
	"github.com/dispatch-gateway/dispatch-gateway/logger"
	"github.com/dispatch-gateway/dispatch-gateway/otel"
)

// Telemetry records dispatch metrics for RPC requests.
type Telemetry interface {
	Middleware() gin.HandlerFunc
}

type TelemetryImpl struct {
	cfg       config.Config
	telemetry otel.Telemetry
	logger    logger.Logger
}

// NewTelemetryMiddleware creates the telemetry middleware. A nil telemetry
// backend yields a pass-through handler.
func NewTelemetryMiddleware(cfg config.Config, telemetry otel.Telemetry, log logger.Logger) (Telemetry, error) {
	return &TelemetryImpl{
		cfg:       cfg,
		telemetry: telemetry,
		logger:    log,
	}, nil
}

// responseBodyWriter is a wrapper for the response writer that captures the body
type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response body
func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (t *TelemetryImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.telemetry == nil || !isRPCPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		agentID := agentIDFromPath(c.Request.URL.Path)
		start := time.Now()

		w := &responseBodyWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		durationMs := float64(time.Since(start).Microseconds()) / 1000.0
		outcome := dispatchOutcome(c.Writer.Status(), w.body.Bytes())
		t.logger.Debug("recording dispatch metrics",
			"agent_id", agentID, "outcome", outcome, "duration_ms", durationMs)
		t.telemetry.RecordDispatch(c.Request.Context(), agentID, outcome, durationMs)
	}
}

// dispatchOutcome classifies a dispatch from its response. RPC failures
// travel as HTTP 200 with a populated JSON-RPC error object, so the body is
// inspected in addition to the status code.
func dispatchOutcome(status int, body []byte) string {
	if status != http.StatusOK {
		return "error"
	}

	var response struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "error"
	}
	if len(response.Error) > 0 && string(response.Error) != "null" {
		return "error"
	}
	return "success"
}

// isRPCPath reports whether the path targets an agent RPC endpoint, i.e.
// /{agentID}/a2a.
func isRPCPath(path string) bool {
	return strings.HasSuffix(path, "/a2a")
}

// agentIDFromPath extracts the leading agent identifier path segment.
func agentIDFromPath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segments) == 0 {
		return "unknown"
	}
	return segments[0]
}
