package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// RateLimit describes one sliding window limiter
type RateLimit struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
}

// RateLimiter creates a per-IP sliding window limiter backed by storage.
// Storage is shared between processes when it is Redis.
func RateLimiter(rl RateLimit, storage fiber.Storage, auditLog *audit.Logger) fiber.Handler {
	message := rl.Message
	if message == "" {
		message = "Too many requests, please try again later"
	}
	return limiter.New(limiter.Config{
		Max:               rl.Max,
		Expiration:        rl.Window,
		Storage:           storage,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return "rl:" + rl.Name + ":" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			retry, _ := strconv.Atoi(string(c.Response().Header.Peek(fiber.HeaderRetryAfter)))
			auditLog.Log(c.UserContext(), audit.Event{
				Type:      audit.RateLimitExceeded,
				IP:        c.IP(),
				UserAgent: c.Get(fiber.HeaderUserAgent),
				Details:   map[string]any{"limiter": rl.Name, "path": c.Path(), "method": c.Method()},
			})
			return response.TooManyRequests(c, message, time.Duration(retry)*time.Second)
		},
	})
}

// LoginRateLimit is the default limit for login attempts
func LoginRateLimit(max int, window time.Duration) RateLimit {
	return RateLimit{Name: "login", Max: max, Window: window, Message: "Too many login attempts, please try again later"}
}

// APIRateLimit is the default limit for general API calls
func APIRateLimit(max int, window time.Duration) RateLimit {
	return RateLimit{Name: "api", Max: max, Window: window}
}

// PaymentRateLimit is the default limit for payment creation
func PaymentRateLimit(max int, window time.Duration) RateLimit {
	return RateLimit{Name: "payment", Max: max, Window: window, Message: "Too many payment requests, please try again later"}
}
