package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

const (
	// CSRFContextKey is the Locals key holding the current CSRF token
	CSRFContextKey = "csrf"
	// CSRFCookieName is the double-submit cookie
	CSRFCookieName = "csrf_"
)

// CSRFConfig configures CSRF
type CSRFConfig struct {
	Storage    fiber.Storage
	Secure     bool
	Domain     string
	Expiration time.Duration
}

// CSRF validates the X-CSRF-Token header against the csrf_ cookie on unsafe
// methods and issues a token on safe ones.
func CSRF(cfg CSRFConfig, auditLog *audit.Logger) fiber.Handler {
	if cfg.Expiration <= 0 {
		cfg.Expiration = time.Hour
	}
	return csrf.New(csrf.Config{
		KeyLookup:      "header:" + HeaderCSRF,
		CookieName:     CSRFCookieName,
		CookieDomain:   cfg.Domain,
		CookieSecure:   cfg.Secure,
		CookieHTTPOnly: true,
		CookieSameSite: "Strict",
		Expiration:     cfg.Expiration,
		Storage:        cfg.Storage,
		ContextKey:     CSRFContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			auditLog.Log(c.UserContext(), audit.Event{
				Type:      audit.CSRFViolation,
				IP:        c.IP(),
				UserAgent: c.Get(fiber.HeaderUserAgent),
				Details:   map[string]any{"path": c.Path(), "method": c.Method(), "reason": err.Error()},
			})
			return response.Error(c, fiber.StatusForbidden, response.CodeInvalidCSRF, "Invalid or missing CSRF token")
		},
	})
}

// CSRFToken returns the token issued for this request
func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRFContextKey).(string)
	return token
}
