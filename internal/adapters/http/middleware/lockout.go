package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// LockoutChecker reports whether an account number is locked out
type LockoutChecker interface {
	CheckAccountNumber(ctx context.Context, accountNumber string) error
	Now() time.Time
}

// LockoutGuard refuses a login for a locked account before the handler runs
func LockoutGuard(checker LockoutChecker, auditLog *audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			AccountNumber string `json:"accountNumber"`
		}
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			// malformed bodies are rejected by the handler
			return c.Next()
		}
		accountNumber := strings.TrimSpace(body.AccountNumber)
		if accountNumber == "" {
			return c.Next()
		}

		err := checker.CheckAccountNumber(c.UserContext(), accountNumber)
		if err == nil {
			return c.Next()
		}

		var locked *domain.LockedError
		if errors.As(err, &locked) {
			auditLog.Log(c.UserContext(), audit.Event{
				Type:      audit.AccountLockedAttempt,
				IP:        c.IP(),
				UserAgent: c.Get(fiber.HeaderUserAgent),
				Details:   map[string]any{"accountNumber": accountNumber},
			})
			return response.Locked(c,
				"Account is temporarily locked due to too many failed login attempts",
				locked.Until,
				locked.RetryAfter(checker.Now()),
			)
		}
		if errors.Is(err, domain.ErrTransientStore) {
			return response.ServiceUnavailable(c, "Service temporarily unavailable, please retry")
		}
		return err
	}
}
