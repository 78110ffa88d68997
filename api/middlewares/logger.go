package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dispatch-gateway/dispatch-gateway/logger"
)

// LoggerMiddleware logs every request with its latency and status.
type LoggerMiddleware interface {
	Middleware() gin.HandlerFunc
}

type LoggerMiddlewareImpl struct {
	logger logger.Logger
}

// NewLoggerMiddleware creates the request logging middleware.
func NewLoggerMiddleware(log logger.Logger) (LoggerMiddleware, error) {
	return &LoggerMiddlewareImpl{logger: log}, nil
}

func (m *LoggerMiddlewareImpl) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.logger.Info("request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
