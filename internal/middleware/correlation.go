package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrelationIDHeader carries the request correlation ID.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID attaches an ID to every request so log lines across the
// pipeline can be joined. An inbound ID is honored; otherwise one is
// generated.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set("correlationID", correlationID)
		c.Header(CorrelationIDHeader, correlationID)
		c.Next()
	}
}
