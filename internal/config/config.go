package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	AppMode        string        `envconfig:"APP_MODE"`
	Port           string        `envconfig:"PORT"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS"`
	StoreTimeout   time.Duration `envconfig:"STORE_TIMEOUT"`

	// Database and JWT are read with the DEV_ / PROD_ prefix of the active mode
	Database DatabaseConfig `ignored:"true"`
	JWT      JWTConfig      `ignored:"true"`

	Cookie    CookieConfig    `envconfig:"COOKIE"`
	Password  PasswordConfig  `envconfig:"PASSWORD"`
	Lockout   LockoutConfig   `envconfig:"LOCKOUT"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	KV        KVConfig        `envconfig:"KV"`
	Audit     AuditConfig     `envconfig:"AUDIT"`
	Log       LogConfig       `envconfig:"LOG"`
	Reset     ResetConfig     `envconfig:"RESET"`
	Cron      CronConfig      `envconfig:"CRON"`
	Bootstrap BootstrapConfig `envconfig:"ADMIN_BOOTSTRAP"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string `envconfig:"DB_DRIVER"`
	Host     string `envconfig:"DB_HOST"`
	Port     string `envconfig:"DB_PORT"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASS"`
	DBName   string `envconfig:"DB_NAME"`
	// DSN overrides the host/port fields; for sqlite it is the file path
	DSN string `envconfig:"DB_DSN"`
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret        string        `envconfig:"JWT_SECRET"`
	RefreshSecret string        `envconfig:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `envconfig:"ACCESS_TOKEN_TTL"`
	RefreshTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL"`
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure bool   `envconfig:"SECURE"`
	Domain string `envconfig:"DOMAIN"`
}

// PasswordConfig holds hashing and strength settings
type PasswordConfig struct {
	Algorithm        string `envconfig:"ALGORITHM"`
	BcryptCost       int    `envconfig:"BCRYPT_COST"`
	HashConcurrency  int    `envconfig:"HASH_CONCURRENCY"`
	MinLength        int    `envconfig:"MIN_LENGTH"`
	RequireUppercase bool   `envconfig:"REQUIRE_UPPERCASE"`
	RequireLowercase bool   `envconfig:"REQUIRE_LOWERCASE"`
	RequireNumbers   bool   `envconfig:"REQUIRE_NUMBERS"`
	RequireSymbols   bool   `envconfig:"REQUIRE_SYMBOLS"`
}

// LockoutConfig holds failed login thresholds
type LockoutConfig struct {
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS"`
	Duration    time.Duration `envconfig:"DURATION"`
}

// RateLimitConfig holds the sliding window limits
type RateLimitConfig struct {
	LoginMax      int           `envconfig:"LOGIN_MAX"`
	LoginWindow   time.Duration `envconfig:"LOGIN_WINDOW"`
	APIMax        int           `envconfig:"API_MAX"`
	APIWindow     time.Duration `envconfig:"API_WINDOW"`
	PaymentMax    int           `envconfig:"PAYMENT_MAX"`
	PaymentWindow time.Duration `envconfig:"PAYMENT_WINDOW"`
}

// KVConfig selects the key-value store
type KVConfig struct {
	Driver        string        `envconfig:"DRIVER"`
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB"`
	Prefix        string        `envconfig:"PREFIX"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL"`
}

// AuditConfig holds the security log location
type AuditConfig struct {
	Path string `envconfig:"LOG_PATH"`
}

// LogConfig holds application log settings
type LogConfig struct {
	Level  string `envconfig:"LEVEL"`
	Format string `envconfig:"FORMAT"`
}

// ResetConfig holds password reset settings
type ResetConfig struct {
	TokenTTL time.Duration `envconfig:"TOKEN_TTL"`
}

// CronConfig holds the cleanup schedule
type CronConfig struct {
	CleanupSpec string `envconfig:"CLEANUP_SPEC"`
}

// BootstrapConfig seeds the first Admin at startup when all fields are set
type BootstrapConfig struct {
	FullName      string `envconfig:"FULL_NAME"`
	IDNumber      string `envconfig:"ID_NUMBER"`
	AccountNumber string `envconfig:"ACCOUNT_NUMBER"`
	Password      string `envconfig:"PASSWORD"`
}

// Enabled reports whether every bootstrap field is present
func (b BootstrapConfig) Enabled() bool {
	return b.FullName != "" && b.IDNumber != "" && b.AccountNumber != "" && b.Password != ""
}

const (
	devJWTSecret        = "default_secret"
	devJWTRefreshSecret = "default_refresh_secret"
)

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		AppMode:      "dev",
		Port:         "3000",
		StoreTimeout: 5 * time.Second,
		Database: DatabaseConfig{
			Driver: "mysql",
			Host:   "localhost",
			Port:   "3306",
			User:   "root",
			DBName: "payment_portal",
		},
		JWT: JWTConfig{
			Secret:        devJWTSecret,
			RefreshSecret: devJWTRefreshSecret,
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Algorithm:        "bcrypt",
			BcryptCost:       12,
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
			RequireSymbols:   true,
		},
		Lockout: LockoutConfig{
			MaxAttempts: 5,
			Duration:    15 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			LoginMax:      5,
			LoginWindow:   15 * time.Minute,
			APIMax:        100,
			APIWindow:     15 * time.Minute,
			PaymentMax:    10,
			PaymentWindow: time.Hour,
		},
		KV: KVConfig{
			Driver:        "memory",
			RedisAddr:     "localhost:6379",
			Prefix:        "portal:",
			SweepInterval: time.Minute,
		},
		Audit:  AuditConfig{Path: "logs/security.log"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Reset:  ResetConfig{TokenTTL: 15 * time.Minute},
		Cron:   CronConfig{CleanupSpec: "@every 1h"},
	}
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables")
	}

	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.AppMode = strings.TrimSpace(cfg.AppMode)
	if cfg.AppMode != "dev" && cfg.AppMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", cfg.AppMode)
	}

	prefix := "DEV"
	if cfg.IsProd() {
		prefix = "PROD"
		// production never inherits the development signing secrets
		cfg.JWT.Secret = ""
		cfg.JWT.RefreshSecret = ""
	}
	if err := envconfig.Process(prefix, &cfg.Database); err != nil {
		return nil, fmt.Errorf("read database environment: %w", err)
	}
	if err := envconfig.Process(prefix, &cfg.JWT); err != nil {
		return nil, fmt.Errorf("read jwt environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded",
		"mode", cfg.AppMode,
		"port", cfg.Port,
		"db_driver", cfg.Database.Driver,
		"db_host", cfg.Database.Host,
		"db_password", maskValue(cfg.Database.Password),
		"jwt_secret", maskValue(cfg.JWT.Secret),
		"access_ttl", cfg.JWT.AccessTTL,
		"kv_driver", cfg.KV.Driver,
		"password_algorithm", cfg.Password.Algorithm,
	)
	return cfg, nil
}

// Validate rejects settings that would weaken the security model
func (c *Config) Validate() error {
	var errs []error
	if c.IsProd() {
		if c.JWT.Secret == "" || c.JWT.Secret == devJWTSecret {
			errs = append(errs, errors.New("PROD_JWT_SECRET must be set"))
		}
		if c.JWT.RefreshSecret == "" || c.JWT.RefreshSecret == devJWTRefreshSecret {
			errs = append(errs, errors.New("PROD_JWT_REFRESH_SECRET must be set"))
		}
	}
	if c.JWT.Secret != "" && c.JWT.Secret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("access and refresh secrets must differ"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.AccessTTL > time.Hour {
		errs = append(errs, fmt.Errorf("access token ttl %s must be within (0, 1h]", c.JWT.AccessTTL))
	}
	if c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("refresh token ttl must be positive"))
	}
	if c.Password.BcryptCost < 10 {
		errs = append(errs, fmt.Errorf("PASSWORD_BCRYPT_COST %d must be at least 10", c.Password.BcryptCost))
	}
	switch c.Password.Algorithm {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("unknown PASSWORD_ALGORITHM %q", c.Password.Algorithm))
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}
	switch c.KV.Driver {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown KV_DRIVER %q", c.KV.Driver))
	}
	if strings.Contains(c.AllowedOrigins, "*") {
		errs = append(errs, errors.New("ALLOWED_ORIGINS cannot contain a wildcard with credentialed CORS"))
	}
	if c.Lockout.MaxAttempts < 1 || c.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("lockout thresholds must be positive"))
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("STORE_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	if c.AllowedOrigins != "" {
		return c.AllowedOrigins
	}
	if c.IsDev() {
		return "http://localhost:3000,http://localhost:5173"
	}
	return "https://portal.example.com"
}

func maskValue(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 6 {
		return "****"
	}
	return v[:3] + "***"
}
