package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/metrics"
	"clinic-scheduling-server/pkg/logging"
)

// RequestLogger logs one structured line per request.
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if caller, ok := CallerFromContext(c); ok {
			attrs = append(attrs, "user_id", caller.UserID, "role", string(caller.Role))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request failed", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}

// Metrics records request latency by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}
