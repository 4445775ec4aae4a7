package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/kv"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/app"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
)

// env is an opened portal plus the resources to release afterwards
type env struct {
	*app.App
	logger *slog.Logger
	close  func() error
}

// openEnv connects to the configured database, kv store and audit log
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := config.SetupLogger(cfg)

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		config.CloseDatabase(db)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store, err := kv.New(kv.Options{
		Driver:        cfg.KV.Driver,
		RedisAddr:     cfg.KV.RedisAddr,
		RedisPassword: cfg.KV.RedisPassword,
		RedisDB:       cfg.KV.RedisDB,
		Prefix:        cfg.KV.Prefix,
	}, logger)
	if err != nil {
		config.CloseDatabase(db)
		return nil, err
	}

	auditLog, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		store.Close()
		config.CloseDatabase(db)
		return nil, err
	}

	return &env{
		App: app.New(app.Options{
			Config: cfg,
			DB:     db,
			Store:  store,
			Audit:  auditLog,
			Logger: logger,
		}),
		logger: logger,
		close: func() error {
			return errors.Join(auditLog.Close(), store.Close(), config.CloseDatabase(db))
		},
	}, nil
}
