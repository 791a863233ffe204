package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDHeader carries the correlation id. A diarization request can
// hold its connection for minutes, so the id is echoed in the response
// headers up front to let clients match slow jobs against server logs.
const requestIDHeader = "X-Request-Id"

// requestIDKey is the gin context key the request logger reads.
const requestIDKey = "request_id"

// RequestID tags each request with a correlation id, minting one when the
// caller did not supply its own.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
