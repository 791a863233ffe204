package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health: liveness plus the capability probe the
// deployment uses for diagnostics.
func (h *Handler) Health(c *gin.Context) {
	acceleratorAvailable := false
	if h.backend != nil {
		acceleratorAvailable = h.backend.Available(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"status":                "ok",
		"timestamp":             time.Now().UTC().Format(time.RFC3339),
		"accelerator_available": acceleratorAvailable,
		"cpu_count":             runtime.NumCPU(),
		"workers":               runtime.GOMAXPROCS(0),
		"version":               h.version,
	})
}

// Metrics handles GET /metrics: runtime memory and goroutine numbers.
func (h *Handler) Metrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.JSON(http.StatusOK, gin.H{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"goroutines": runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"gc_runs":        m.NumGC,
		},
	})
}
