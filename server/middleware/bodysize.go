package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/diarized/util"
)

const defaultMaxBodySize = 500 * 1024 * 1024 // 500MB; audio uploads are large

// BodySizeLimit returns middleware that restricts the request body to the
// given size string (e.g. "500MB", "1GB"). Oversized multipart reads then
// fail inside the handler, which maps them to 413.
func BodySizeLimit(maxSize string) gin.HandlerFunc {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}
