package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/jwt"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/password"
)

// TokenService issues, rotates and revokes access/refresh token pairs
type TokenService struct {
	issuer      *jwt.Issuer
	refreshRepo repositories.RefreshTokenRepository
	accountRepo repositories.AccountRepository
	audit       *audit.Logger
	logger      *slog.Logger
	clock       Clock

	// collapses concurrent refreshes of the same token into one rotation
	group singleflight.Group
}

// NewTokenService creates a new token service
func NewTokenService(
	issuer *jwt.Issuer,
	refreshRepo repositories.RefreshTokenRepository,
	accountRepo repositories.AccountRepository,
	auditLog *audit.Logger,
	logger *slog.Logger,
	clock Clock,
) *TokenService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{
		issuer:      issuer,
		refreshRepo: refreshRepo,
		accountRepo: accountRepo,
		audit:       auditLog,
		logger:      logger.With("service", "token"),
		clock:       clock,
	}
}

// IssueAccessToken signs a short-lived access token
func (s *TokenService) IssueAccessToken(userID string, role domain.Role) (string, time.Time, error) {
	return s.issuer.GenerateAccessToken(userID, string(role))
}

// IssueRefreshToken signs a refresh token and records it by its id
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID string, role domain.Role) (string, string, error) {
	tokenID := uuid.NewString()
	token, expiresAt, err := s.issuer.GenerateRefreshToken(userID, string(role), tokenID)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	row := &models.RefreshToken{
		ID:        tokenID,
		UserID:    userID,
		TokenHash: password.HashToken(token),
		ExpiresAt: expiresAt.UTC(),
	}
	if err := s.refreshRepo.Create(ctx, row); err != nil {
		return "", "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, tokenID, nil
}

// IssuePair issues a fresh access/refresh pair for account
func (s *TokenService) IssuePair(ctx context.Context, account *models.Account) (*AuthResult, error) {
	access, expiresAt, err := s.IssueAccessToken(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, _, err := s.IssueRefreshToken(ctx, account.ID, account.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// VerifyAccessToken validates an access token
func (s *TokenService) VerifyAccessToken(token string) (*jwt.Claims, error) {
	claims, err := s.issuer.ValidateAccessToken(token)
	if err != nil {
		return nil, tokenError(err)
	}
	if _, ok := domain.ParseRole(claims.Role); !ok || claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// Revoke marks a refresh token id revoked. Revoking twice is not an error.
func (s *TokenService) Revoke(ctx context.Context, tokenID string) error {
	_, err := s.refreshRepo.Revoke(ctx, tokenID, s.clock.now())
	return err
}

// RevokeRefreshToken revokes the id carried by a signed refresh token and
// returns its owner. Tokens that no longer validate are ignored.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.issuer.ValidateRefreshToken(token)
	if err != nil {
		return "", nil
	}
	if err := s.Revoke(ctx, claims.TokenID()); err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// RevokeAll revokes every live refresh token of a user
func (s *TokenService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.refreshRepo.RevokeAllByUserID(ctx, userID, s.clock.now())
}

// Refresh validates a refresh token and rotates it into a new pair.
// Concurrent calls with the same token share a single rotation.
func (s *TokenService) Refresh(ctx context.Context, token string, meta RequestMeta) (*AuthResult, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	key := password.HashToken(token)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.rotate(ctx, token, key, meta)
	})
	if err != nil {
		return nil, err
	}
	return v.(*AuthResult), nil
}

func (s *TokenService) rotate(ctx context.Context, token, hash string, meta RequestMeta) (*AuthResult, error) {
	// 1. Signature and expiry
	claims, err := s.issuer.ValidateRefreshToken(token)
	if err != nil {
		return nil, tokenError(err)
	}

	// 2. Tracked row
	row, err := s.refreshRepo.GetByID(ctx, claims.TokenID())
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(row.TokenHash), []byte(hash)) != 1 || row.UserID != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}

	// 3. A revoked token coming back means it leaked
	if row.IsRevoked() {
		s.handleReuse(ctx, row.UserID, row.ID, meta)
		return nil, domain.ErrTokenRevoked
	}
	now := s.clock.now()
	if row.IsExpired(now) {
		return nil, domain.ErrTokenExpired
	}

	// 4. Role comes from the store, not the token
	account, err := s.accountRepo.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}

	// 5. Rotate; only the caller that flips revoked_at may issue
	ok, err := s.refreshRepo.Revoke(ctx, row.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrTokenRevoked
	}
	return s.IssuePair(ctx, account)
}

func (s *TokenService) handleReuse(ctx context.Context, userID, tokenID string, meta RequestMeta) {
	revoked, err := s.RevokeAll(ctx, userID)
	if err != nil {
		s.logger.Error("revoke tokens after reuse", "user_id", userID, "error", err)
	}
	s.logger.Warn("revoked refresh token presented", "user_id", userID, "token_id", tokenID)
	s.audit.Log(ctx, audit.Event{
		Type:      audit.TokenReuseDetected,
		UserID:    userID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"tokenId": tokenID, "revoked": revoked},
	})
}

// CleanupExpired deletes refresh token rows past their expiry
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.refreshRepo.DeleteExpired(ctx, s.clock.now())
}

// ActiveSessions counts the live refresh tokens of a user
func (s *TokenService) ActiveSessions(ctx context.Context, userID string) (int64, error) {
	return s.refreshRepo.CountActiveByUserID(ctx, userID, s.clock.now())
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.ErrTokenExpired
	}
	return domain.ErrTokenInvalid
}
