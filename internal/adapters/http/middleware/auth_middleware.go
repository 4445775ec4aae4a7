package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/jwt"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// Locals keys set by RequireAuth
const (
	LocalUserID = "userID"
	LocalRole   = "role"
)

// TokenVerifier validates access tokens
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

// RequireAuth creates authentication middleware
func RequireAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Bearer header only; access tokens are never sent as cookies
		accessToken := ""
		if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
			accessToken = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		// 2. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 3. Validate token
		claims, err := verifier.VerifyAccessToken(accessToken)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 4. Set user info in context
		role, _ := domain.ParseRole(claims.Role)
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalRole, role)

		return c.Next()
	}
}

// RequireRole creates role-based authorization middleware. Admin passes any
// role check.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(LocalRole).(domain.Role)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !role.Satisfies(allowed...) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// AdminOnly allows only the Admin role
func AdminOnly() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}

// StaffOnly allows Employee or Admin
func StaffOnly() fiber.Handler {
	return RequireRole(domain.StaffRoles...)
}

// CustomerOnly allows Customer (and Admin)
func CustomerOnly() fiber.Handler {
	return RequireRole(domain.RoleCustomer)
}

// CurrentUser returns the authenticated user set by RequireAuth
func CurrentUser(c *fiber.Ctx) (string, domain.Role) {
	id, _ := c.Locals(LocalUserID).(string)
	role, _ := c.Locals(LocalRole).(domain.Role)
	return id, role
}
