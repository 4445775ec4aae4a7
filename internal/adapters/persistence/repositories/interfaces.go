package repositories

import (
	"context"
	"time"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// LockoutState is the lockout columns written by a compare-and-swap
type LockoutState struct {
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastFailedLogin     *time.Time
}

// AccountRepository defines account repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	ExistsByIdentity(ctx context.Context, idNumber, accountNumber string) (bool, error)
	ExistsByRole(ctx context.Context, role domain.Role) (bool, error)
	// CompareAndSetLockout writes state only if failed_login_attempts still
	// equals expected. It reports whether the row was updated.
	CompareAndSetLockout(ctx context.Context, id string, expected int, state LockoutState) (bool, error)
	RecordLoginSuccess(ctx context.Context, id string, history []domain.LoginAttempt) error
	ResetLockout(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	ListLocked(ctx context.Context, threshold int, now time.Time) ([]*models.Account, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByID(ctx context.Context, id string) (*models.RefreshToken, error)
	// Revoke marks the token revoked and reports whether this call did it
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)
	RevokeAllByUserID(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
	CountActiveByUserID(ctx context.Context, userID string, now time.Time) (int64, error)
}

// TransactionRepository defines transaction repository interface
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id string) (*models.Transaction, error)
	ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]*models.Transaction, int64, error)
	ListPending(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error)
	ListVerified(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error)
	// Verify, Unverify and SubmitVerified are guarded updates returning the
	// number of rows that matched the guard.
	Verify(ctx context.Context, id, verifiedBy string, at time.Time) (int64, error)
	Unverify(ctx context.Context, id string) (int64, error)
	SubmitVerified(ctx context.Context, ids []string, submittedBy string, at time.Time) (int64, error)
}
