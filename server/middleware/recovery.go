package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/diarized/logger"
)

// Recovery converts a handler panic into the API's JSON error envelope
// instead of a dropped connection. Inference cannot take the server down
// (it runs in a disposable worker process); this catches bugs in the
// request-handling layer itself.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := map[string]interface{}{
					logger.FieldError: fmt.Sprintf("%v", r),
					"stack":           string(debug.Stack()),
					"method":          c.Request.Method,
					"path":            c.Request.URL.Path,
				}
				if id := c.GetString(requestIDKey); id != "" {
					fields[logger.FieldRequestID] = id
				}
				logger.Error("Panic in request handler", fields)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
