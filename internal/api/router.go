package api

import (
	"github.com/gin-gonic/gin"

	"assistant/internal/api/admin"
	"assistant/internal/api/chat"
	"assistant/internal/api/middleware"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	AdminAPIKey  string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(chatHandler *chat.Handler, adminHandler *admin.Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.CORS(cfg.AllowOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	chatGroup := r.Group("/api/v1/chat")
	chatHandler.RegisterRoutes(chatGroup)

	adminGroup := r.Group("/api/v1/admin")
	adminGroup.Use(middleware.Auth(cfg.AdminAPIKey))
	adminHandler.RegisterRoutes(adminGroup)

	return r
}
