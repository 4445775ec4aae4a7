package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// transactionRepository implements TransactionRepository interface
type transactionRepository struct {
	store
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB, timeout time.Duration) TransactionRepository {
	return &transactionRepository{store: newStore(db, timeout)}
}

// Create creates a new transaction
func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return mapErr(db, db.Create(tx).Error)
}

// GetByID gets a transaction by ID
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var tx models.Transaction
	if err := db.Where("id = ?", id).First(&tx).Error; err != nil {
		err = mapErr(db, err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// ListByCustomer lists a customer's transactions, newest first
func (r *transactionRepository) ListByCustomer(ctx context.Context, customerID string, offset, limit int) ([]*models.Transaction, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	return r.page(db.Model(&models.Transaction{}).Where("customer_id = ?", customerID), offset, limit)
}

// ListPending lists transactions waiting for verification, newest first
func (r *transactionRepository) ListPending(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	return r.page(db.Model(&models.Transaction{}).
		Where("status = ? AND verified = ?", domain.StatusPending, false), offset, limit)
}

// ListVerified lists transactions ready for submission, newest first
func (r *transactionRepository) ListVerified(ctx context.Context, offset, limit int) ([]*models.Transaction, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	return r.page(db.Model(&models.Transaction{}).
		Where("status = ? AND verified = ?", domain.StatusVerified, true), offset, limit)
}

func (r *transactionRepository) page(q *gorm.DB, offset, limit int) ([]*models.Transaction, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapErr(q, err)
	}

	var txs []*models.Transaction
	err := q.Order("created_at DESC").Order("id").Offset(offset).Limit(limit).Find(&txs).Error
	if err != nil {
		return nil, 0, mapErr(q, err)
	}
	return txs, total, nil
}

// Verify moves a pending transaction to verified
func (r *transactionRepository) Verify(ctx context.Context, id, verifiedBy string, at time.Time) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]interface{}{
			"status":      domain.StatusVerified,
			"verified":    true,
			"verified_by": verifiedBy,
			"verified_at": at,
		})
	return result.RowsAffected, mapErr(db, result.Error)
}

// Unverify moves a verified transaction back to pending
func (r *transactionRepository) Unverify(ctx context.Context, id string) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, domain.StatusVerified).
		Updates(map[string]interface{}{
			"status":      domain.StatusPending,
			"verified":    false,
			"verified_by": nil,
			"verified_at": nil,
		})
	return result.RowsAffected, mapErr(db, result.Error)
}

// SubmitVerified marks every id that is still verified as submitted in a
// single statement. Ids that fail the guard are left untouched.
func (r *transactionRepository) SubmitVerified(ctx context.Context, ids []string, submittedBy string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.Transaction{}).
		Where("id IN ?", ids).
		Where("verified = ? AND status = ?", true, domain.StatusVerified).
		Updates(map[string]interface{}{
			"status":                domain.StatusSubmitted,
			"submitted_by":          submittedBy,
			"submitted_to_swift_at": at,
		})
	return result.RowsAffected, mapErr(db, result.Error)
}
