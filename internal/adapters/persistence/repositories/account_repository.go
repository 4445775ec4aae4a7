package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	store
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB, timeout time.Duration) AccountRepository {
	return &accountRepository{store: newStore(db, timeout)}
}

// Create inserts an account. A unique index violation on id number or
// account number surfaces as domain.ErrDuplicateAccount.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := mapErr(db, db.Create(account).Error)
	if errors.Is(err, ErrDuplicateKey) {
		return domain.ErrDuplicateAccount
	}
	return err
}

// GetByID gets an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var account models.Account
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		return nil, accountError(db, err)
	}
	return &account, nil
}

// GetByAccountNumber gets an account by its account number
func (r *accountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var account models.Account
	if err := db.Where("account_number = ?", accountNumber).First(&account).Error; err != nil {
		return nil, accountError(db, err)
	}
	return &account, nil
}

// ExistsByIdentity checks whether either unique identifier is taken
func (r *accountRepository) ExistsByIdentity(ctx context.Context, idNumber, accountNumber string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Account{}).
		Where("id_number = ? OR account_number = ?", idNumber, accountNumber).
		Count(&count).Error
	return count > 0, mapErr(db, err)
}

// ExistsByRole checks whether any account holds role
func (r *accountRepository) ExistsByRole(ctx context.Context, role domain.Role) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.Account{}).Where("role = ?", role).Count(&count).Error
	return count > 0, mapErr(db, err)
}

// CompareAndSetLockout updates the lockout columns guarded by the counter
func (r *accountRepository) CompareAndSetLockout(ctx context.Context, id string, expected int, state LockoutState) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Account{}).
		Where("id = ? AND failed_login_attempts = ?", id, expected).
		Updates(map[string]interface{}{
			"failed_login_attempts": state.FailedLoginAttempts,
			"locked_until":          timeOrNil(state.LockedUntil),
			"last_failed_login":     timeOrNil(state.LastFailedLogin),
		})
	if result.Error != nil {
		return false, mapErr(db, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RecordLoginSuccess clears the lockout state and stores the login history
func (r *accountRepository) RecordLoginSuccess(ctx context.Context, id string, history []domain.LoginAttempt) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return mapErr(db, db.Model(&models.Account{ID: id}).
		Select("failed_login_attempts", "locked_until", "last_failed_login", "login_history").
		Updates(&models.Account{
			FailedLoginAttempts: 0,
			LockedUntil:         nil,
			LastFailedLogin:     nil,
			LoginHistory:        history,
		}).Error)
}

// ResetLockout clears the counter and both lockout timestamps
func (r *accountRepository) ResetLockout(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	return mapErr(db, db.Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_failed_login":     nil,
		}).Error)
}

// UpdatePassword replaces the hash and clears any lockout
func (r *accountRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password":              hash,
			"failed_login_attempts": 0,
			"locked_until":          nil,
			"last_failed_login":     nil,
		})
	if result.Error != nil {
		return mapErr(db, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListLocked lists accounts whose lock is still in force
func (r *accountRepository) ListLocked(ctx context.Context, threshold int, now time.Time) ([]*models.Account, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var accounts []*models.Account
	err := db.Where("failed_login_attempts >= ? AND locked_until > ?", threshold, now).
		Order("locked_until DESC").
		Find(&accounts).Error
	return accounts, mapErr(db, err)
}

func accountError(db *gorm.DB, err error) error {
	err = mapErr(db, err)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrAccountNotFound
	}
	return err
}

func timeOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
