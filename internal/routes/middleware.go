package routes

import (
	"time"

	"pncp/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with a request id (kept from the caller
// when present) and a correlation id, and logs it once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)

		ctx := logging.ContextWithRequestID(c.Request.Context(), requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logging.Ctx(ctx).Info()
		if status >= 500 {
			event = logging.Ctx(ctx).Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
