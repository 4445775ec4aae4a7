// Package app wires configuration, storage and services into a runnable
// portal. The server, the CLI and the HTTP tests all build through New.
package app

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/handlers"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/middleware"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/routes"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/kv"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/jwt"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/password"
)

// Options are the already-opened resources the portal runs on
type Options struct {
	Config *config.Config
	DB     *gorm.DB
	Store  kv.Store
	Audit  *audit.Logger
	Logger *slog.Logger
	// Clock overrides time.Now for every service; tests use it to expire
	// lockouts and tokens.
	Clock func() time.Time
	// Notifier delivers reset tokens; defaults to the log notifier
	Notifier services.ResetNotifier
}

// App holds the wired services
type App struct {
	cfg    *config.Config
	db     *gorm.DB
	store  kv.Store
	audit  *audit.Logger
	logger *slog.Logger
	now    func() time.Time

	Accounts     repositories.AccountRepository
	Tokens       *services.TokenService
	Lockout      *services.LockoutService
	Auth         *services.AuthService
	Reset        *services.ResetService
	Transactions *services.TransactionService
	Cron         *services.CronService
}

// New builds repositories and services from opts
func New(opts Options) *App {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditLog := opts.Audit
	if auditLog == nil {
		auditLog = audit.Discard()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	clock := services.Clock(now)

	accounts := repositories.NewAccountRepository(opts.DB, cfg.StoreTimeout)
	refreshTokens := repositories.NewRefreshTokenRepository(opts.DB, cfg.StoreTimeout)
	txs := repositories.NewTransactionRepository(opts.DB, cfg.StoreTimeout)

	hasher := NewHasher(cfg.Password)
	policy := NewPolicy(cfg.Password)
	issuer := jwt.NewIssuer(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL).WithClock(now)

	tokens := services.NewTokenService(issuer, refreshTokens, accounts, auditLog, logger, clock)
	lockout := services.NewLockoutService(accounts, auditLog, logger, clock, cfg.Lockout.MaxAttempts, cfg.Lockout.Duration)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = services.NewLogResetNotifier(logger, cfg.IsDev())
	}

	var sweeper services.Sweeper
	if sw, ok := opts.Store.(services.Sweeper); ok {
		sweeper = sw
	}

	return &App{
		cfg:    cfg,
		db:     opts.DB,
		store:  opts.Store,
		audit:  auditLog,
		logger: logger,
		now:    now,

		Accounts:     accounts,
		Tokens:       tokens,
		Lockout:      lockout,
		Auth:         services.NewAuthService(accounts, hasher, policy, tokens, lockout, auditLog, logger),
		Reset:        services.NewResetService(accounts, tokens, hasher, policy, opts.Store, notifier, auditLog, logger, clock, cfg.Reset.TokenTTL),
		Transactions: services.NewTransactionService(txs, auditLog, logger, clock),
		Cron:         services.NewCronService(tokens, sweeper, logger, cfg.Cron.CleanupSpec),
	}
}

// NewHasher builds the password hasher described by cfg
func NewHasher(cfg config.PasswordConfig) *password.Hasher {
	return password.NewHasher(
		password.WithAlgorithm(password.Algorithm(cfg.Algorithm)),
		password.WithCost(cfg.BcryptCost),
		password.WithConcurrency(cfg.HashConcurrency),
	)
}

// NewPolicy builds the strength policy described by cfg
func NewPolicy(cfg config.PasswordConfig) password.Policy {
	return password.Policy{
		MinLength:      cfg.MinLength,
		RequireUpper:   cfg.RequireUppercase,
		RequireLower:   cfg.RequireLowercase,
		RequireNumber:  cfg.RequireNumbers,
		RequireSymbols: cfg.RequireSymbols,
	}
}

// Fiber creates the HTTP application with global middleware and routes
func (a *App) Fiber() *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:      "Customer Payment Portal API v1.0",
		ErrorHandler: middleware.ErrorHandler(a.logger),
		BodyLimit:    1 << 20,
	})

	middleware.Setup(server, a.cfg)

	base := handlers.Base{Logger: a.logger, Dev: a.cfg.IsDev(), Now: a.now}
	routes.Setup(server, routes.Deps{
		Config:   a.cfg,
		Store:    a.store,
		Audit:    a.audit,
		Verifier: a.Tokens,
		Lockout:  a.Lockout,

		Health:       handlers.NewHealthHandler(a.db, a.cfg),
		Auth:         handlers.NewAuthHandler(a.Auth, a.Reset, a.cfg, base),
		Payments:     handlers.NewPaymentHandler(a.Transactions, base),
		Transactions: handlers.NewTransactionHandler(a.Transactions, base),
		Admin:        handlers.NewAdminHandler(a.Lockout, base),
	})
	return server
}
