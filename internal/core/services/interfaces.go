package services

import (
	"context"
	"time"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// RequestMeta describes where a call came from, for audit records
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Actor is the authenticated caller of a privileged operation
type Actor struct {
	ID   string
	Role domain.Role
}

// ResetNotifier delivers a password reset token to the account holder
type ResetNotifier interface {
	SendResetToken(ctx context.Context, account *models.Account, token string, expiresAt time.Time) error
}

// RegisterInput represents registration input
type RegisterInput struct {
	FullName      string
	IDNumber      string
	AccountNumber string
	Password      string
}

// LoginInput represents login input
type LoginInput struct {
	AccountNumber string
	Password      string
}

// AuthResult is returned by login and refresh
type AuthResult struct {
	Account      *models.Account
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
