package api

import (
	"net/http"
	"time"

	"gamehost/internal/eventbus"
	"gamehost/internal/session"
	"gamehost/internal/storage"

	"github.com/gin-gonic/gin"
)

func NewRouter(orch *session.Orchestrator, store *storage.SessionStorage, bus eventbus.EventBus) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())

	// Global health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: formatTime(time.Now()),
		})
	})

	handler := NewMultiplayerHandler(orch, store, bus)

	multiplayer := r.Group("/multiplayer")
	multiplayer.Use(CompanyAuthMiddleware())
	{
		multiplayer.POST("/start", handler.Start)
		multiplayer.GET("/stats", handler.Stats)
		multiplayer.GET("/active", handler.Active)

		multiplayer.POST("/:id/stop", handler.Stop)
		multiplayer.GET("/:id/status", handler.Status)
		multiplayer.GET("/:id/events", handler.StreamEvents)

		// Progress file storage
		multiplayer.POST("/:id/upload", handler.Upload)
		multiplayer.GET("/:id/files", handler.ListFiles)
		multiplayer.GET("/:id/download/:filename", handler.Download)
	}

	return r
}
