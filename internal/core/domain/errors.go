package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCSRF        = errors.New("invalid csrf token")
	ErrRateLimited        = errors.New("too many requests")
	ErrTransientStore     = errors.New("store temporarily unavailable")
)

// Account errors
var (
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrDuplicateAccount = errors.New("an account with this id number or account number already exists")
	ErrAdminExists      = errors.New("an admin account already exists")
)

// Token errors
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
	ErrTokenUsed    = errors.New("token already used")
)

// Transaction errors
var (
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrInvalidTransition   = errors.New("transaction is not in a state that allows this action")
)

// ValidationError carries every problem found in the input
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NewValidationError returns nil when there are no problems
func NewValidationError(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// WeakPasswordError is a ValidationError raised by the strength check
type WeakPasswordError struct {
	ValidationError
}

func (e *WeakPasswordError) Error() string {
	return "password does not meet requirements: " + strings.Join(e.Problems, "; ")
}

func (e *WeakPasswordError) Unwrap() error {
	return &e.ValidationError
}

// LockedError is returned while an account is locked out
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// RetryAfter is the remaining lock duration relative to now, rounded up to a second
func (e *LockedError) RetryAfter(now time.Time) time.Duration {
	d := e.Until.Sub(now)
	if d <= 0 {
		return 0
	}
	return (d + time.Second - 1).Truncate(time.Second)
}
