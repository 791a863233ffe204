package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// startTime records process start for uptime reporting.
var startTime = time.Now()

// Info handles GET /info: service build information.
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":    "diarized",
		"version":    h.version,
		"go_version": runtime.Version(),
		"uptime":     time.Since(startTime).String(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// DiarizeInfo handles GET /api/v1/diarize/info: self-description of the
// diarization endpoint for API consumers.
func (h *Handler) DiarizeInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"endpoint":     "/api/v1/diarize",
		"method":       "POST",
		"content_type": "multipart/form-data",
		"required_fields": gin.H{
			"audio": "Audio file (" + joinExtensions(h.cfg.AllowedExtensions) + ")",
		},
		"optional_fields": gin.H{
			"use_accelerator": "true/false (default: true) - use the accelerator if usable; use_mps accepted as alias",
			"batch_size":      "integer (default: 16) - embedding batch size on the accelerator",
			"timeout":         "integer seconds (default: 600) - deadline for the isolated worker",
		},
		"example": gin.H{
			"curl": "curl -X POST -F \"audio=@file.wav\" -F \"use_accelerator=true\" http://localhost:5000/api/v1/diarize",
		},
	})
}

func joinExtensions(exts []string) string {
	out := ""
	for i, e := range exts {
		if i > 0 {
			out += ", "
		}
		out += e
	}
	return out
}
