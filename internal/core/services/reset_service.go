package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/kv"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/password"
)

const (
	DefaultResetTTL = 15 * time.Minute

	resetTokenBytes = 32
	resetKeyPrefix  = "reset:"
	// used records outlive their expiry so a late replay still reports UsedToken
	resetRetention = time.Hour
)

// resetRecord is the KV value stored per reset token
type resetRecord struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
}

// ResetService issues and redeems single-use password reset tokens
type ResetService struct {
	accountRepo repositories.AccountRepository
	tokens      *TokenService
	hasher      *password.Hasher
	policy      password.Policy
	store       kv.Store
	notifier    ResetNotifier
	audit       *audit.Logger
	logger      *slog.Logger
	clock       Clock
	ttl         time.Duration

	// serializes the read-check-mark sequence on reset records
	mu sync.Mutex
}

// NewResetService creates a new reset service
func NewResetService(
	accountRepo repositories.AccountRepository,
	tokens *TokenService,
	hasher *password.Hasher,
	policy password.Policy,
	store kv.Store,
	notifier ResetNotifier,
	auditLog *audit.Logger,
	logger *slog.Logger,
	clock Clock,
	ttl time.Duration,
) *ResetService {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetService{
		accountRepo: accountRepo,
		tokens:      tokens,
		hasher:      hasher,
		policy:      policy,
		store:       store,
		notifier:    notifier,
		audit:       auditLog,
		logger:      logger.With("service", "reset"),
		clock:       clock,
		ttl:         ttl,
	}
}

// RequestPasswordReset issues a reset token when the account exists. Callers
// always see success; the raw token is returned so development builds can
// echo it, and is empty when nothing was issued.
func (s *ResetService) RequestPasswordReset(ctx context.Context, accountNumber string, meta RequestMeta) string {
	accountNumber = strings.TrimSpace(accountNumber)
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("look up account for reset", "error", err)
		}
		return ""
	}

	token, err := newResetToken()
	if err != nil {
		s.logger.Error("generate reset token", "error", err)
		return ""
	}
	rec := resetRecord{UserID: account.ID, ExpiresAt: s.clock.now().Add(s.ttl)}
	if err := kv.SetJSON(s.store, resetKey(token), rec, s.ttl+resetRetention); err != nil {
		s.logger.Error("store reset token", "error", err)
		return ""
	}

	s.audit.Log(ctx, audit.Event{
		Type:      audit.PasswordResetRequested,
		UserID:    account.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"expiresAt": rec.ExpiresAt.Format(time.RFC3339)},
	})
	if s.notifier != nil {
		if err := s.notifier.SendResetToken(ctx, account, token, rec.ExpiresAt); err != nil {
			s.logger.Error("deliver reset token", "user_id", account.ID, "error", err)
		}
	}
	return token
}

// ResetPassword redeems a reset token. Failures are domain.ErrTokenInvalid,
// domain.ErrTokenUsed, domain.ErrTokenExpired or a *domain.WeakPasswordError.
// A weak password does not consume the token.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string, meta RequestMeta) error {
	key := resetKey(token)

	rec, err := s.claim(key, newPassword)
	if err != nil {
		s.audit.Log(ctx, audit.Event{
			Type:      audit.PasswordResetFailed,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Details:   map[string]any{"reason": err.Error()},
		})
		return err
	}

	hashed, err := s.hasher.Hash(ctx, newPassword)
	if err == nil {
		err = s.accountRepo.UpdatePassword(ctx, rec.UserID, hashed)
	}
	if err != nil {
		s.release(key, rec)
		return fmt.Errorf("reset password: %w", err)
	}

	revoked, err := s.tokens.RevokeAll(ctx, rec.UserID)
	if err != nil {
		s.logger.Error("revoke sessions after reset", "user_id", rec.UserID, "error", err)
	}
	s.audit.Log(ctx, audit.Event{
		Type:      audit.PasswordResetCompleted,
		UserID:    rec.UserID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"sessionsRevoked": revoked},
	})
	return nil
}

// claim validates the record and marks it used in one serialized step
func (s *ResetService) claim(key, newPassword string) (resetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec resetRecord
	if err := kv.GetJSON(s.store, key, &rec); err != nil {
		if errors.Is(err, kv.ErrMiss) {
			return rec, domain.ErrTokenInvalid
		}
		return rec, fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	if rec.Used {
		return rec, domain.ErrTokenUsed
	}
	now := s.clock.now()
	if !now.Before(rec.ExpiresAt) {
		return rec, domain.ErrTokenExpired
	}
	if problems := s.policy.Check(newPassword); len(problems) > 0 {
		return rec, &domain.WeakPasswordError{ValidationError: domain.ValidationError{Problems: problems}}
	}

	rec.Used = true
	if err := kv.SetJSON(s.store, key, rec, rec.ExpiresAt.Sub(now)+resetRetention); err != nil {
		return rec, fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return rec, nil
}

// release puts a claimed token back when the password could not be written
func (s *ResetService) release(key string, rec resetRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Used = false
	ttl := rec.ExpiresAt.Sub(s.clock.now()) + resetRetention
	if err := kv.SetJSON(s.store, key, rec, ttl); err != nil {
		s.logger.Error("restore reset token", "error", err)
	}
}

func resetKey(token string) string {
	return resetKeyPrefix + password.HashToken(token)
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// LogResetNotifier writes reset tokens to the application log. The raw token
// is only included when reveal is set (development).
type LogResetNotifier struct {
	logger *slog.Logger
	reveal bool
}

// NewLogResetNotifier creates a notifier that logs instead of delivering
func NewLogResetNotifier(logger *slog.Logger, reveal bool) *LogResetNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogResetNotifier{logger: logger.With("component", "reset-notifier"), reveal: reveal}
}

func (n *LogResetNotifier) SendResetToken(_ context.Context, account *models.Account, token string, expiresAt time.Time) error {
	attrs := []any{"account_number", account.AccountNumber, "expires_at", expiresAt}
	if n.reveal {
		attrs = append(attrs, "token", token)
	}
	n.logger.Info("password reset token issued", attrs...)
	return nil
}
