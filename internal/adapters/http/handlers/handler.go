package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/middleware"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/validation"
)

// Base carries what every handler needs to render errors
type Base struct {
	Logger *slog.Logger
	Dev    bool
	Now    func() time.Time
}

func (b Base) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b Base) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

// writeError maps a service error onto the HTTP contract
func (b Base) writeError(c *fiber.Ctx, err error) error {
	var (
		weak   *domain.WeakPasswordError
		verr   *domain.ValidationError
		locked *domain.LockedError
	)
	switch {
	case errors.As(err, &weak):
		return response.ValidationFailed(c, response.CodeWeakPassword, "Password does not meet requirements", weak.Problems)
	case errors.As(err, &verr):
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", verr.Problems)
	case errors.As(err, &locked):
		return response.Locked(c, "Account is temporarily locked due to too many failed login attempts", locked.Until, locked.RetryAfter(b.now()))
	case errors.Is(err, domain.ErrDuplicateAccount):
		return response.BadRequest(c, response.CodeDuplicateAccount, "An account with this ID number or account number already exists")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return response.Error(c, fiber.StatusUnauthorized, response.CodeInvalidCredentials, "Invalid account number or password")
	case errors.Is(err, domain.ErrTokenExpired):
		return response.BadRequest(c, response.CodeExpiredToken, "Token has expired")
	case errors.Is(err, domain.ErrTokenUsed):
		return response.BadRequest(c, response.CodeUsedToken, "Token has already been used")
	case errors.Is(err, domain.ErrTokenInvalid), errors.Is(err, domain.ErrTokenRevoked):
		return response.BadRequest(c, response.CodeInvalidToken, "Invalid token")
	case errors.Is(err, domain.ErrUnauthorized):
		return response.Unauthorized(c, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have permission to perform this action")
	case errors.Is(err, domain.ErrInvalidCSRF):
		return response.Error(c, fiber.StatusForbidden, response.CodeInvalidCSRF, "Invalid or missing CSRF token")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return response.NotFound(c, "Transaction not found")
	case errors.Is(err, domain.ErrAccountNotFound):
		return response.NotFound(c, "Account not found")
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Resource not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.Conflict(c, response.CodeInvalidTransition, "Transaction is not in a state that allows this action")
	case errors.Is(err, domain.ErrAdminExists):
		return response.Conflict(c, response.CodeConflict, "An admin account already exists")
	case errors.Is(err, domain.ErrRateLimited):
		return response.TooManyRequests(c, "Too many requests, please try again later", 0)
	case errors.Is(err, domain.ErrTransientStore):
		b.logger().Warn("transient store failure", "path", c.Path(), "error", err)
		return response.ServiceUnavailable(c, "Service temporarily unavailable, please retry")
	}

	b.logger().Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	msg := "Internal server error"
	if b.Dev {
		msg += ": " + err.Error()
	}
	return response.InternalServerError(c, msg)
}

// bindAndValidate parses the JSON body into req and runs the struct tags.
// It returns the problems found, or nil.
func bindAndValidate(c *fiber.Ctx, req interface{}) []string {
	if err := c.BodyParser(req); err != nil {
		return []string{"request body must be valid JSON"}
	}
	return validation.Struct(req)
}

// requestMeta describes the caller for audit records
func requestMeta(c *fiber.Ctx) services.RequestMeta {
	return services.RequestMeta{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}

// actor returns the authenticated caller
func actor(c *fiber.Ctx) services.Actor {
	id, role := middleware.CurrentUser(c)
	return services.Actor{ID: id, Role: role}
}
