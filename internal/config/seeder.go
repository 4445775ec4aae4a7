package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
)

// AdminRegistrar creates the first Admin account
type AdminRegistrar interface {
	RegisterAdmin(ctx context.Context, input *services.RegisterInput, meta services.RequestMeta) (*models.Account, error)
}

// Seeder handles database seeding
type Seeder struct {
	registrar AdminRegistrar
	bootstrap BootstrapConfig
	logger    *slog.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(registrar AdminRegistrar, bootstrap BootstrapConfig, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{registrar: registrar, bootstrap: bootstrap, logger: logger}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	if !s.bootstrap.Enabled() {
		s.logger.Debug("admin bootstrap not configured, skipping")
		return nil
	}
	return s.seedAdmin(ctx)
}

// seedAdmin creates the bootstrap Admin once. An existing Admin is not an
// error so restarts with the same environment are quiet.
func (s *Seeder) seedAdmin(ctx context.Context) error {
	account, err := s.registrar.RegisterAdmin(ctx, &services.RegisterInput{
		FullName:      s.bootstrap.FullName,
		IDNumber:      s.bootstrap.IDNumber,
		AccountNumber: s.bootstrap.AccountNumber,
		Password:      s.bootstrap.Password,
	}, services.RequestMeta{IP: "seeder", UserAgent: "seeder"})
	switch {
	case errors.Is(err, domain.ErrAdminExists):
		s.logger.Info("admin already exists, bootstrap skipped")
		return nil
	case err != nil:
		return fmt.Errorf("seed admin: %w", err)
	}

	s.logger.Info("admin account created", "account_number", account.AccountNumber)
	return nil
}
