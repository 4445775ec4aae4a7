package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Store is the key-value contract shared by rate limiting, CSRF tokens and
// password reset tokens. It is fiber.Storage so fiber middleware can use it
// directly. Get returns (nil, nil) on a miss.
type Store interface {
	fiber.Storage
}

// Driver names
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Options configures New
type Options struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	SweepInterval time.Duration
}

// New builds the store selected by opts.Driver
func New(opts Options, logger *slog.Logger) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(opts.SweepInterval), nil
	case DriverRedis:
		return NewRedisStore(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		}, opts.Prefix, logger)
	default:
		return nil, fmt.Errorf("unknown kv driver %q", opts.Driver)
	}
}

// ErrMiss is returned by GetJSON when the key does not exist
var ErrMiss = errors.New("kv: key not found")

// GetJSON loads and decodes the value at key
func GetJSON(s Store, key string, dst any) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON encodes v and stores it at key with ttl (0 = no expiry)
func SetJSON(s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, raw, ttl)
}
