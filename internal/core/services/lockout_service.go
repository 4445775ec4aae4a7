package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
)

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute

	maxCASRetries = 5
)

// LockoutService tracks failed logins and locks accounts that cross the threshold
type LockoutService struct {
	accountRepo repositories.AccountRepository
	audit       *audit.Logger
	logger      *slog.Logger
	clock       Clock
	maxAttempts int
	duration    time.Duration
}

// NewLockoutService creates a new lockout service
func NewLockoutService(
	accountRepo repositories.AccountRepository,
	auditLog *audit.Logger,
	logger *slog.Logger,
	clock Clock,
	maxAttempts int,
	duration time.Duration,
) *LockoutService {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LockoutService{
		accountRepo: accountRepo,
		audit:       auditLog,
		logger:      logger.With("service", "lockout"),
		clock:       clock,
		maxAttempts: maxAttempts,
		duration:    duration,
	}
}

// Threshold returns the number of failures that locks an account
func (s *LockoutService) Threshold() int { return s.maxAttempts }

// Now is the service clock, used to render the remaining lock time
func (s *LockoutService) Now() time.Time { return s.clock.now() }

// Check returns a *domain.LockedError while the account is locked
func (s *LockoutService) Check(account *models.Account) error {
	if account.IsLocked(s.maxAttempts, s.clock.now()) {
		return &domain.LockedError{Until: account.LockedUntil.UTC()}
	}
	return nil
}

// CheckAccountNumber is Check for a login that has not been authenticated yet.
// Unknown account numbers are not locked.
func (s *LockoutService) CheckAccountNumber(ctx context.Context, accountNumber string) error {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.Check(account)
}

// RecordFailure counts a failed login and reports whether this attempt locked
// the account. The counter is updated with compare-and-swap so concurrent
// failures are never lost.
func (s *LockoutService) RecordFailure(ctx context.Context, account *models.Account, meta RequestMeta) (bool, error) {
	current := account
	for i := 0; i < maxCASRetries; i++ {
		now := s.clock.now()
		state, locking := s.nextState(current, now)

		ok, err := s.accountRepo.CompareAndSetLockout(ctx, current.ID, current.FailedLoginAttempts, state)
		if err != nil {
			return false, fmt.Errorf("record failed login: %w", err)
		}
		if ok {
			s.audit.Log(ctx, audit.Event{
				Type:      audit.FailedLoginAttempt,
				UserID:    current.ID,
				IP:        meta.IP,
				UserAgent: meta.UserAgent,
				Details:   map[string]any{"attempts": state.FailedLoginAttempts},
			})
			if locking {
				s.logger.Warn("account locked", "user_id", current.ID, "until", state.LockedUntil)
				s.audit.Log(ctx, audit.Event{
					Type:      audit.AccountLockout,
					UserID:    current.ID,
					IP:        meta.IP,
					UserAgent: meta.UserAgent,
					Details: map[string]any{
						"attempts":    state.FailedLoginAttempts,
						"lockedUntil": state.LockedUntil.Format(time.RFC3339),
					},
				})
			}
			return locking, nil
		}

		// someone else moved the counter; reload and try again
		current, err = s.accountRepo.GetByID(ctx, current.ID)
		if err != nil {
			return false, fmt.Errorf("reload account: %w", err)
		}
	}
	return false, fmt.Errorf("record failed login: %w", domain.ErrTransientStore)
}

// nextState computes the lockout columns after one more failure
func (s *LockoutService) nextState(account *models.Account, now time.Time) (repositories.LockoutState, bool) {
	count := account.FailedLoginAttempts
	if account.LockedUntil != nil && !account.LockedUntil.After(now) {
		// lock has lapsed, start a fresh window
		count = 0
	}
	count++

	state := repositories.LockoutState{FailedLoginAttempts: count, LastFailedLogin: &now}
	switch {
	case account.IsLocked(s.maxAttempts, now):
		state.LockedUntil = account.LockedUntil
		return state, false
	case count >= s.maxAttempts:
		until := now.Add(s.duration)
		state.LockedUntil = &until
		return state, true
	}
	return state, false
}

// RecordSuccess clears the lockout state and appends to the login history
func (s *LockoutService) RecordSuccess(ctx context.Context, account *models.Account, meta RequestMeta) error {
	history := domain.AppendLoginHistory(account.LoginHistory, domain.LoginAttempt{
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Timestamp: s.clock.now(),
		Success:   true,
	})
	if err := s.accountRepo.RecordLoginSuccess(ctx, account.ID, history); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LastFailedLogin = nil
	account.LoginHistory = history
	return nil
}

// Unlock clears the lockout of an account on behalf of an admin
func (s *LockoutService) Unlock(ctx context.Context, actor Actor, userID string, meta RequestMeta) (*models.Account, error) {
	if !actor.Role.Satisfies(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	account, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.unlock(ctx, actor, account, meta)
}

// UnlockByAccountNumber is Unlock addressed by account number
func (s *LockoutService) UnlockByAccountNumber(ctx context.Context, actor Actor, accountNumber string, meta RequestMeta) (*models.Account, error) {
	if !actor.Role.Satisfies(domain.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return s.unlock(ctx, actor, account, meta)
}

func (s *LockoutService) unlock(ctx context.Context, actor Actor, account *models.Account, meta RequestMeta) (*models.Account, error) {
	wasLocked := account.IsLocked(s.maxAttempts, s.clock.now())
	if err := s.accountRepo.ResetLockout(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("unlock account: %w", err)
	}
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LastFailedLogin = nil

	s.logger.Info("account unlocked", "user_id", account.ID, "by", actor.ID)
	s.audit.Log(ctx, audit.Event{
		Type:      audit.AdminAction,
		UserID:    actor.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details: map[string]any{
			"action":        "unlock_account",
			"targetUserId":  account.ID,
			"accountNumber": account.AccountNumber,
			"wasLocked":     wasLocked,
		},
	})
	return account, nil
}

// ListLocked lists accounts whose lock is in force now
func (s *LockoutService) ListLocked(ctx context.Context) ([]*models.Account, error) {
	return s.accountRepo.ListLocked(ctx, s.maxAttempts, s.clock.now())
}
