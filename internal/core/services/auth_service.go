package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/password"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/validation"
)

// dummyPassword is hashed once and compared against for unknown accounts so a
// miss costs the same as a wrong password.
const dummyPassword = "not-a-real-password-Aa1!"

// AuthService handles authentication business logic
type AuthService struct {
	accountRepo repositories.AccountRepository
	hasher      *password.Hasher
	policy      password.Policy
	tokens      *TokenService
	lockout     *LockoutService
	audit       *audit.Logger
	logger      *slog.Logger

	adminMu sync.Mutex

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo repositories.AccountRepository,
	hasher *password.Hasher,
	policy password.Policy,
	tokens *TokenService,
	lockout *LockoutService,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		accountRepo: accountRepo,
		hasher:      hasher,
		policy:      policy,
		tokens:      tokens,
		lockout:     lockout,
		audit:       auditLog,
		logger:      logger.With("service", "auth"),
	}
}

// ============================================================
// Registration
// ============================================================

// Register creates a Customer account
func (s *AuthService) Register(ctx context.Context, input *RegisterInput, meta RequestMeta) (*models.Account, error) {
	account, err := s.register(ctx, input, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, audit.Event{
		Type:      audit.Registration,
		UserID:    account.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"accountNumber": account.AccountNumber},
	})
	return account, nil
}

// RegisterEmployee creates an Employee account. The requester is re-read from
// the store and must still be an Admin.
func (s *AuthService) RegisterEmployee(ctx context.Context, requesterID string, input *RegisterInput, meta RequestMeta) (*models.Account, error) {
	requester, err := s.accountRepo.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrForbidden
		}
		return nil, err
	}
	if requester.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	account, err := s.register(ctx, input, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	s.audit.Log(ctx, audit.Event{
		Type:      audit.EmployeeRegistered,
		UserID:    requester.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"employeeId": account.ID, "accountNumber": account.AccountNumber},
	})
	return account, nil
}

// RegisterAdmin creates the first Admin. It fails once any Admin exists.
func (s *AuthService) RegisterAdmin(ctx context.Context, input *RegisterInput, meta RequestMeta) (*models.Account, error) {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	exists, err := s.accountRepo.ExistsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAdminExists
	}

	account, err := s.register(ctx, input, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bootstrap admin created", "user_id", account.ID)
	s.audit.Log(ctx, audit.Event{
		Type:      audit.AdminAction,
		UserID:    account.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"action": "bootstrap_admin", "accountNumber": account.AccountNumber},
	})
	return account, nil
}

func (s *AuthService) register(ctx context.Context, input *RegisterInput, role domain.Role) (*models.Account, error) {
	// 1. Validate identity fields and password strength together
	in := normalizeRegister(input)
	if err := s.validateRegister(in); err != nil {
		return nil, err
	}

	// 2. Reject duplicates early; the unique index still guards races
	exists, err := s.accountRepo.ExistsByIdentity(ctx, in.IDNumber, in.AccountNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateAccount
	}

	// 3. Hash password
	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// 4. Create account
	account := &models.Account{
		FullName:      in.FullName,
		IDNumber:      in.IDNumber,
		AccountNumber: in.AccountNumber,
		Password:      hashed,
		Role:          role,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "user_id", account.ID, "role", role)
	return account, nil
}

func normalizeRegister(input *RegisterInput) RegisterInput {
	if input == nil {
		return RegisterInput{}
	}
	return RegisterInput{
		FullName:      strings.TrimSpace(input.FullName),
		IDNumber:      strings.TrimSpace(input.IDNumber),
		AccountNumber: strings.TrimSpace(input.AccountNumber),
		Password:      input.Password,
	}
}

func (s *AuthService) validateRegister(in RegisterInput) error {
	var problems []string
	if !validation.FullName(in.FullName) {
		problems = append(problems, "fullName must be 2-50 letters and spaces")
	}
	if !validation.IDNumber(in.IDNumber) {
		problems = append(problems, "idNumber must be exactly 13 digits")
	}
	if !validation.AccountNumber(in.AccountNumber) {
		problems = append(problems, "accountNumber must be 8-12 digits")
	}
	weak := s.policy.Check(in.Password)
	if len(problems) == 0 && len(weak) > 0 {
		return &domain.WeakPasswordError{ValidationError: domain.ValidationError{Problems: weak}}
	}
	return domain.NewValidationError(append(problems, weak...)...)
}

// PasswordProblems lists the strength rules password breaks
func (s *AuthService) PasswordProblems(pw string) []string {
	return s.policy.Check(pw)
}

// ============================================================
// Sessions
// ============================================================

// Login authenticates an account number and password
func (s *AuthService) Login(ctx context.Context, input *LoginInput, meta RequestMeta) (*AuthResult, error) {
	accountNumber := strings.TrimSpace(input.AccountNumber)
	if accountNumber == "" || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// 1. Find account; an unknown number still pays for a hash comparison
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.hasher.Verify(ctx, input.Password, s.dummy(ctx))
		s.audit.Log(ctx, audit.Event{
			Type:      audit.FailedLoginAttempt,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
			Details:   map[string]any{"reason": "unknown_account"},
		})
		return nil, domain.ErrInvalidCredentials
	}

	// 2. A locked account is refused before the password is looked at
	if err := s.lockout.Check(account); err != nil {
		s.audit.Log(ctx, audit.Event{
			Type:      audit.AccountLockedAttempt,
			UserID:    account.ID,
			IP:        meta.IP,
			UserAgent: meta.UserAgent,
		})
		return nil, err
	}

	// 3. Verify password
	if !s.hasher.Verify(ctx, input.Password, account.Password) {
		if _, err := s.lockout.RecordFailure(ctx, account, meta); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Reset lockout, record history, issue tokens
	if err := s.lockout.RecordSuccess(ctx, account, meta); err != nil {
		return nil, err
	}
	result, err := s.tokens.IssuePair(ctx, account)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, audit.Event{
		Type:      audit.LoginSuccess,
		UserID:    account.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"role": account.Role},
	})
	return result, nil
}

func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(ctx, dummyPassword)
		if err != nil {
			s.logger.Error("hash dummy password", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Refresh rotates a refresh token into a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*AuthResult, error) {
	return s.tokens.Refresh(ctx, refreshToken, meta)
}

// Logout revokes the presented refresh token. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, meta RequestMeta) error {
	if refreshToken == "" {
		return nil
	}
	userID, err := s.tokens.RevokeRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	if userID != "" {
		s.audit.Log(ctx, audit.Event{Type: audit.Logout, UserID: userID, IP: meta.IP, UserAgent: meta.UserAgent})
	}
	return nil
}

// LogoutAll revokes every refresh token of the user
func (s *AuthService) LogoutAll(ctx context.Context, userID string, meta RequestMeta) (int64, error) {
	revoked, err := s.tokens.RevokeAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.audit.Log(ctx, audit.Event{
		Type:      audit.Logout,
		UserID:    userID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"scope": "all", "revoked": revoked},
	})
	return revoked, nil
}

// Me returns the caller's account
func (s *AuthService) Me(ctx context.Context, userID string) (*models.Account, error) {
	return s.accountRepo.GetByID(ctx, userID)
}
