package response

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Response represents the standard API envelope
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	RetryAfter int         `json:"retryAfter,omitempty"`
}

// Error codes returned alongside the human readable message
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCSRF        = "INVALID_CSRF"
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeConflict           = "CONFLICT"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeExpiredToken       = "EXPIRED_TOKEN"
	CodeUsedToken          = "USED_TOKEN"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeTransient          = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Success sends a success response
func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, code, message string) error {
	return c.Status(statusCode).JSON(Response{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// ValidationFailed sends a 400 listing every problem
func ValidationFailed(c *fiber.Ctx, code, message string, problems []string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Response{
		Success: false,
		Error:   message,
		Code:    code,
		Errors:  problems,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, code, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, CodeForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, CodeNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, code, message string) error {
	return Error(c, fiber.StatusConflict, code, message)
}

// Locked sends a 423 with the time the lock is lifted
func Locked(c *fiber.Ctx, message string, until time.Time, retryAfter time.Duration) error {
	secs := int(retryAfter / time.Second)
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
	return c.Status(fiber.StatusLocked).JSON(Response{
		Success:    false,
		Error:      message,
		Code:       CodeAccountLocked,
		Data:       fiber.Map{"lockedUntil": until.UTC()},
		RetryAfter: secs,
	})
}

// TooManyRequests sends a 429 with a retry hint
func TooManyRequests(c *fiber.Ctx, message string, retryAfter time.Duration) error {
	secs := int(retryAfter / time.Second)
	if secs > 0 {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
	}
	return c.Status(fiber.StatusTooManyRequests).JSON(Response{
		Success:    false,
		Error:      message,
		Code:       CodeRateLimited,
		RetryAfter: secs,
	})
}

// ServiceUnavailable sends a 503 for transient failures
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusServiceUnavailable, CodeTransient, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, CodeInternal, message)
}
