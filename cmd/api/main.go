package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guildforge/guildforge/internal/api"
	"github.com/guildforge/guildforge/internal/discord"
	"github.com/guildforge/guildforge/internal/events"
	"github.com/guildforge/guildforge/internal/middleware"
	"github.com/guildforge/guildforge/internal/repository"
	"github.com/guildforge/guildforge/internal/service"
	"github.com/guildforge/guildforge/internal/storage"
	"github.com/guildforge/guildforge/pkg/config"
	"github.com/guildforge/guildforge/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.NewLogger(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.LogJSON)
	logger.SetDefault(appLogger)

	logger.Info("Starting application", map[string]interface{}{
		"app":   cfg.AppName,
		"debug": cfg.Debug,
		"port":  cfg.Port,
	})

	if cfg.DiscordToken == "" {
		logger.Fatal("DISCORD_BOT_TOKEN is required", nil, nil)
	}

	// Initialize database
	if err := repository.InitDB(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	logger.Info("Database initialized", nil)

	// Initialize Event-Bus with multi-storage (PostgreSQL + InfluxDB)
	db := repository.GetDB()
	dbStorage := events.NewDatabaseEventStorage(db)

	var eventStorage events.EventStorage = dbStorage
	if cfg.InfluxDBURL != "" && cfg.InfluxDBToken != "" {
		influxClient, err := storage.NewInfluxDBClient(storage.InfluxDBConfig{
			URL:    cfg.InfluxDBURL,
			Token:  cfg.InfluxDBToken,
			Org:    cfg.InfluxDBOrg,
			Bucket: cfg.InfluxDBBucket,
		})
		if err != nil {
			logger.Warn("Failed to initialize InfluxDB, falling back to database-only storage", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer influxClient.Close()
			influxStorage := events.NewInfluxDBEventStorage(influxClient)
			eventStorage = events.NewMultiEventStorage(dbStorage, influxStorage)
			logger.Info("Event-Bus initialized with dual storage (PostgreSQL + InfluxDB)", map[string]interface{}{
				"influxdb_url": cfg.InfluxDBURL,
				"org":          cfg.InfluxDBOrg,
				"bucket":       cfg.InfluxDBBucket,
			})
		}
	} else {
		logger.Info("Event-Bus initialized with database storage only", nil)
	}

	events.SetEventStorage(eventStorage)

	// Configure auth middleware
	middleware.SetJWTSecret(cfg.JWTSecret)

	// Initialize the Discord client with the configured pacing profile
	discordCfg := discord.DefaultConfig(cfg.DiscordToken)
	if cfg.DiscordBaseURL != "" {
		discordCfg.BaseURL = cfg.DiscordBaseURL
	}
	if cfg.PacingIntervalMs > 0 {
		discordCfg.MinInterval = time.Duration(cfg.PacingIntervalMs) * time.Millisecond
	}
	if cfg.PacingBatchSize > 0 {
		discordCfg.BatchSize = cfg.PacingBatchSize
	}
	if cfg.PacingBatchPause > 0 {
		discordCfg.BatchPause = time.Duration(cfg.PacingBatchPause) * time.Millisecond
	}
	if cfg.RetryMaxAttempts > 0 {
		discordCfg.MaxAttempts = cfg.RetryMaxAttempts
	}
	discordClient := discord.NewClient(discordCfg)
	logger.Info("Discord client initialized", map[string]interface{}{
		"min_interval_ms": discordCfg.MinInterval.Milliseconds(),
		"batch_size":      discordCfg.BatchSize,
		"max_attempts":    discordCfg.MaxAttempts,
	})

	// Initialize the template catalog
	templateService, err := service.NewTemplateService(cfg.TemplatesPath)
	if err != nil {
		logger.Fatal("Failed to load template catalog", err, nil)
	}

	// Initialize WebSocket hub for live run progress
	runHub := api.NewRunHub()
	go runHub.Run()
	defer runHub.Shutdown()
	logger.Info("Run progress hub started", nil)

	// Initialize the provisioning service
	runRepo := repository.NewRunRepository(db)
	provisionService := service.NewProvisionService(discordClient, discordClient, runRepo, runHub)
	logger.Info("Provision service initialized", nil)

	// Initialize API handlers
	provisionHandler := api.NewProvisionHandler(provisionService, templateService)
	templateHandler := api.NewTemplateHandler(templateService)
	eventsHandler := api.NewEventsHandler(events.GetEventBus())
	prometheusHandler := api.NewPrometheusHandler()

	router := api.SetupRouter(
		provisionHandler,
		templateHandler,
		eventsHandler,
		prometheusHandler,
		runHub,
		cfg,
	)

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.Info("Shutting down", map[string]interface{}{
			"signal": sig.String(),
		})
		runHub.Shutdown()
		if provider := repository.GetDBProvider(); provider != nil {
			provider.Close()
		}
		os.Exit(0)
	}()

	logger.Info("HTTP server listening", map[string]interface{}{
		"port": cfg.Port,
	})
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("HTTP server failed", err, nil)
	}
}
