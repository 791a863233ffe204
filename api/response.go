package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/diarized/errors"
)

// respondAppError sends the flat {"success": false, "error": ...} envelope
// the diarization API speaks, at the status the AppError recommends.
func respondAppError(c *gin.Context, err *apperrors.AppError) {
	c.JSON(err.HTTPStatus, gin.H{
		"success": false,
		"error":   err.Message,
	})
}

// respondJobError is respondAppError plus the request wall time, for
// failures that happened after a job actually ran.
func respondJobError(c *gin.Context, err *apperrors.AppError, requestTime time.Duration) {
	c.JSON(err.HTTPStatus, gin.H{
		"success":      false,
		"error":        err.Message,
		"request_time": requestTime.Seconds(),
	})
}

// respondNotFound is the JSON 404 for unknown routes.
func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"error":   "Route not found",
	})
}
