// Package api serves the reader-facing HTTP interface: the feed, the
// feedback endpoint, source management and operational endpoints.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates the HTTP router with all routes configured.
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for the local frontend
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled (API_ACCESS_KEY not set)")
	}

	api.GET("/feed", handler.GetFeed)
	api.POST("/feed/action", handler.PostFeedAction)

	api.GET("/sources", handler.ListSources)
	api.POST("/sources", handler.CreateSource)
	api.PATCH("/sources/:id", handler.UpdateSource)
	api.DELETE("/sources/:id", handler.DeleteSource)

	api.GET("/settings/prompt", handler.GetPrompt)
	api.POST("/settings/prompt", handler.SetPrompt)

	api.POST("/admin/refresh", handler.PostRefresh)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "PersonaFlow",
			"description": "Personal content curation pipeline",
			"endpoints": map[string]string{
				"feed":    "/api/feed",
				"action":  "/api/feed/action (POST)",
				"sources": "/api/sources",
				"prompt":  "/api/settings/prompt",
				"refresh": "/api/admin/refresh (POST)",
				"health":  "/health",
				"stats":   "/stats",
				"metrics": "/metrics",
			},
			"auth": gin.H{
				"enabled": apiAccessKey != "",
				"header":  "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
}

func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
