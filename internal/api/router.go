package api

import (
	"github.com/gin-gonic/gin"
	"github.com/guildforge/guildforge/internal/middleware"
	"github.com/guildforge/guildforge/internal/repository"
	"github.com/guildforge/guildforge/pkg/config"
)

func SetupRouter(
	provisionHandler *ProvisionHandler,
	templateHandler *TemplateHandler,
	eventsHandler *EventsHandler,
	prometheusHandler *PrometheusHandler,
	runHub *RunHub,
	cfg *config.Config,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (in order)
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimiter))

	// CORS middleware (for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoints (no auth required)
	dbProvider := repository.GetDBProvider()
	healthHandler := NewHealthHandler(dbProvider)
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/stats", healthHandler.RuntimeStats)

	// Prometheus metrics endpoint (no auth required for scraping)
	router.GET("/prometheus", prometheusHandler.MetricsEndpoint)

	// Run progress websocket (read-only stream)
	router.GET("/ws/runs", runHub.HandleConnection)

	// API routes (with auth and API-specific rate limiting)
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	api.Use(middleware.RateLimitMiddleware(middleware.APIRateLimiter))
	{
		// Template catalog
		templates := api.Group("/templates")
		{
			templates.GET("", templateHandler.GetAllTemplates)
			templates.GET("/popular", templateHandler.GetPopularTemplates)
			templates.GET("/search", templateHandler.SearchTemplates)
			templates.POST("/validate", templateHandler.ValidateTemplate)
			templates.GET("/:id", templateHandler.GetTemplate)
		}

		// Guild provisioning
		guilds := api.Group("/guilds")
		{
			guilds.GET("/:guildId/runs", provisionHandler.GuildHistory)
			guilds.GET("/:guildId/events", eventsHandler.GetGuildEvents)

			// Mutating operations, strictly throttled
			mutating := guilds.Group("")
			mutating.Use(middleware.RateLimitMiddleware(middleware.ProvisionRateLimiter))
			{
				mutating.POST("/:guildId/provision", provisionHandler.StartRun)
				mutating.POST("/:guildId/teardown", provisionHandler.Teardown)
			}
		}

		// Run lookups
		api.GET("/runs/:runId", provisionHandler.GetRun)

		// Admin endpoints
		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/runs", provisionHandler.RecentRuns)
			admin.GET("/events", eventsHandler.GetRecentEvents)
			admin.POST("/templates/reload", templateHandler.ReloadTemplates)
		}
	}

	return router
}
