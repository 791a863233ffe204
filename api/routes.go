package api

import (
	"github.com/gin-gonic/gin"
)

// Register mounts all API routes on the engine, including the JSON 404.
func (h *Handler) Register(engine *gin.Engine) {
	engine.GET("/health", h.Health)
	engine.GET("/info", h.Info)
	engine.GET("/metrics", h.Metrics)

	v1 := engine.Group("/api/v1")
	v1.POST("/diarize", h.Diarize)
	v1.GET("/diarize/info", h.DiarizeInfo)

	engine.NoRoute(respondNotFound)
}
