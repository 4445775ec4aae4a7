package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/kv"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/app"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"

	_ "github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/docs" // Swagger docs
)

// @title Customer Payment Portal API
// @version 1.0
// @description International payments portal: customer payments, employee verification and SWIFT submission.

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes https http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.SetupLogger(cfg)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		logger.Error("Failed to auto migrate", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migration completed")

	store, err := kv.New(kv.Options{
		Driver:        cfg.KV.Driver,
		RedisAddr:     cfg.KV.RedisAddr,
		RedisPassword: cfg.KV.RedisPassword,
		RedisDB:       cfg.KV.RedisDB,
		Prefix:        cfg.KV.Prefix,
		SweepInterval: cfg.KV.SweepInterval,
	}, logger)
	if err != nil {
		logger.Error("Failed to open kv store", "driver", cfg.KV.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		logger.Error("Failed to open audit log", "path", cfg.Audit.Path, "error", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	portal := app.New(app.Options{
		Config: cfg,
		DB:     db,
		Store:  store,
		Audit:  auditLog,
		Logger: logger,
	})

	ctx := context.Background()
	if err := config.NewSeeder(portal.Auth, cfg.Bootstrap, logger).Run(ctx); err != nil {
		logger.Warn("Failed to seed admin", "error", err)
	}

	// Refresh token and kv cleanup
	if err := portal.Cron.Start(); err != nil {
		logger.Error("Failed to start cron", "error", err)
		os.Exit(1)
	}
	defer portal.Cron.Stop()

	server := portal.Fiber()

	// Graceful shutdown
	go gracefulShutdown(server, logger)

	logger.Info("Server starting", "port", cfg.Port, "mode", cfg.AppMode)
	if err := server.Listen(":" + cfg.Port); err != nil {
		logger.Error("Failed to start server", "error", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(server *fiber.App, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
