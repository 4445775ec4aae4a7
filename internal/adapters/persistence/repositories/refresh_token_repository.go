package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	store
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB, timeout time.Duration) RefreshTokenRepository {
	return &refreshTokenRepository{store: newStore(db, timeout)}
}

// Create creates a new refresh token
func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return mapErr(db, db.Create(token).Error)
}

// GetByID gets a refresh token by its token id, revoked or not
func (r *refreshTokenRepository) GetByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var token models.RefreshToken
	if err := db.Where("id = ?", id).First(&token).Error; err != nil {
		err = mapErr(db, err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return &token, nil
}

// Revoke revokes a live refresh token. Only the first caller gets true.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string, at time.Time) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Update("revoked_at", at)
	if result.Error != nil {
		return false, mapErr(db, result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RevokeAllByUserID revokes all refresh tokens for a user
func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID string, at time.Time) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", at)
	return result.RowsAffected, mapErr(db, result.Error)
}

// DeleteExpired deletes tokens that expired before the given time (cleanup job)
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("expires_at < ?", before).Delete(&models.RefreshToken{})
	return result.RowsAffected, mapErr(db, result.Error)
}

// CountActiveByUserID counts active tokens for a user
func (r *refreshTokenRepository) CountActiveByUserID(ctx context.Context, userID string, now time.Time) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		Count(&count).Error
	return count, mapErr(db, err)
}
