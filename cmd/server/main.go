package main

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"homestead/server/config"
	"homestead/server/internal/api"
	"homestead/server/internal/auth"
	"homestead/server/internal/database"
	"homestead/server/internal/listing"
	"homestead/server/internal/notify"
	"homestead/server/internal/queue"
	"homestead/server/internal/storage"
	"homestead/server/internal/sweeper"
	"homestead/server/internal/upload"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.DatabasePath)

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Create the upload directory up front so request handlers never
	// race its creation.
	writer := storage.NewWriter(cfg.UploadDir, logger)
	if err := writer.EnsureRoot(); err != nil {
		logger.WithError(err).Fatal("Failed to prepare upload directory")
	}

	processor := upload.NewProcessor(writer, logger)
	service := listing.NewService(db, logger)
	verifier := auth.NewTokenVerifier(cfg.JWTSecret)

	var notifier *notify.Service
	if cfg.Telegram.IsEnabled {
		notifier = notify.NewService(notify.Config{
			BotToken:  cfg.Telegram.BotToken,
			ChatID:    cfg.Telegram.ChatID,
			IsEnabled: true,
		}, logger)
		logger.Info("Telegram notifications enabled")
	}

	// Background cleanup of orphaned upload files
	if cfg.Sweeper.Enabled {
		cleanupQueue := queue.NewCleanupQueue(cfg.Sweeper.QueueSize, logger)
		sw := sweeper.NewSweeper(db, writer, cleanupQueue, cfg, logger)
		sw.Start()
		defer sw.Stop()
		logger.Info("Upload sweeper started")
	}

	handler := api.NewHandler(service, processor, notifier, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, handler, verifier, cfg)

	logger.Infof("Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
