package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/pagination"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/validation"
)

const (
	maxDescriptionLength = 255
	maxProviderLength    = 20
	// MaxBatchSize bounds one submit-to-swift call
	MaxBatchSize = 500
)

var maxAmount = decimal.NewFromInt(domain.MaxAmount)

// PaymentInput represents a payment request from a customer
type PaymentInput struct {
	Amount           decimal.Decimal
	Currency         string
	RecipientName    string
	RecipientAccount string
	SwiftCode        string
	Description      string
	Provider         string
}

// TransactionService runs the payment verification workflow
type TransactionService struct {
	txRepo repositories.TransactionRepository
	audit  *audit.Logger
	logger *slog.Logger
	clock  Clock
}

// NewTransactionService creates a new transaction service
func NewTransactionService(
	txRepo repositories.TransactionRepository,
	auditLog *audit.Logger,
	logger *slog.Logger,
	clock Clock,
) *TransactionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		txRepo: txRepo,
		audit:  auditLog,
		logger: logger.With("service", "transaction"),
		clock:  clock,
	}
}

// ============================================================
// Customer
// ============================================================

// CreatePayment records a new pending payment owned by the actor
func (s *TransactionService) CreatePayment(ctx context.Context, actor Actor, input *PaymentInput, meta RequestMeta) (*models.Transaction, error) {
	if !actor.Role.Satisfies(domain.RoleCustomer) {
		return nil, domain.ErrForbidden
	}
	tx, err := buildTransaction(actor.ID, input)
	if err != nil {
		return nil, err
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	s.audit.Log(ctx, audit.Event{
		Type:      audit.PaymentCreated,
		UserID:    actor.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details: map[string]any{
			"transactionId": tx.ID,
			"amount":        tx.Amount.StringFixed(2),
			"currency":      tx.Currency,
		},
	})
	return tx, nil
}

// buildTransaction normalizes and validates input, reporting every problem
func buildTransaction(customerID string, input *PaymentInput) (*models.Transaction, error) {
	if input == nil {
		return nil, domain.NewValidationError("payment details are required")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	provider := strings.ToUpper(strings.TrimSpace(input.Provider))
	if provider == "" {
		provider = domain.DefaultProvider
	}
	recipient := strings.TrimSpace(input.RecipientName)
	account := strings.TrimSpace(input.RecipientAccount)
	swift := strings.ToUpper(strings.TrimSpace(input.SwiftCode))
	description := strings.TrimSpace(input.Description)

	var problems []string
	switch {
	case !input.Amount.IsPositive():
		problems = append(problems, "amount must be greater than 0")
	case input.Amount.GreaterThan(maxAmount):
		problems = append(problems, "amount must not exceed 1000000")
	case !input.Amount.Round(2).Equal(input.Amount):
		problems = append(problems, "amount must have at most 2 decimal places")
	}
	if !validation.Currency(currency) {
		problems = append(problems, "currency must be a 3-letter uppercase currency code")
	}
	if !validation.RecipientName(recipient) {
		problems = append(problems, "recipientName must be 2-100 letters")
	}
	if !validation.AccountNumber(account) {
		problems = append(problems, "recipientAccount must be 8-12 digits")
	}
	if !validation.SwiftCode(swift) {
		problems = append(problems, "swiftCode must be a valid SWIFT/BIC code")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		problems = append(problems, "description must be at most 255 characters")
	}
	if len(provider) > maxProviderLength {
		problems = append(problems, "provider must be at most 20 characters")
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}

	if description == "" {
		description = "Payment to " + recipient
	}
	return &models.Transaction{
		CustomerID:       customerID,
		Amount:           input.Amount,
		Currency:         currency,
		RecipientName:    recipient,
		RecipientAccount: account,
		SwiftCode:        swift,
		Description:      description,
		Provider:         provider,
		Status:           domain.StatusPending,
		Verified:         false,
	}, nil
}

// ListMine lists the actor's own payments, newest first
func (s *TransactionService) ListMine(ctx context.Context, actor Actor, params *pagination.Params) ([]*models.Transaction, int64, error) {
	return s.txRepo.ListByCustomer(ctx, actor.ID, params.Offset, params.Limit)
}

// ============================================================
// Staff
// ============================================================

// ListPending lists payments waiting for verification
func (s *TransactionService) ListPending(ctx context.Context, actor Actor, params *pagination.Params) ([]*models.Transaction, int64, error) {
	if !actor.Role.Satisfies(domain.StaffRoles...) {
		return nil, 0, domain.ErrForbidden
	}
	return s.txRepo.ListPending(ctx, params.Offset, params.Limit)
}

// ListVerified lists payments ready to be submitted
func (s *TransactionService) ListVerified(ctx context.Context, actor Actor, params *pagination.Params) ([]*models.Transaction, int64, error) {
	if !actor.Role.Satisfies(domain.StaffRoles...) {
		return nil, 0, domain.ErrForbidden
	}
	return s.txRepo.ListVerified(ctx, params.Offset, params.Limit)
}

// Get returns one transaction
func (s *TransactionService) Get(ctx context.Context, actor Actor, id string) (*models.Transaction, error) {
	if !actor.Role.Satisfies(domain.StaffRoles...) {
		return nil, domain.ErrForbidden
	}
	return s.txRepo.GetByID(ctx, id)
}

// Verify moves a pending transaction to verified
func (s *TransactionService) Verify(ctx context.Context, actor Actor, id string, meta RequestMeta) (*models.Transaction, error) {
	if !actor.Role.Satisfies(domain.StaffRoles...) {
		return nil, domain.ErrForbidden
	}
	n, err := s.txRepo.Verify(ctx, id, actor.ID, s.clock.now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, s.transitionError(ctx, id)
	}

	s.audit.Log(ctx, audit.Event{
		Type:      audit.TransactionVerified,
		UserID:    actor.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"transactionId": id},
	})
	return s.txRepo.GetByID(ctx, id)
}

// Unverify moves a verified transaction back to pending
func (s *TransactionService) Unverify(ctx context.Context, actor Actor, id string, meta RequestMeta) (*models.Transaction, error) {
	if !actor.Role.Satisfies(domain.StaffRoles...) {
		return nil, domain.ErrForbidden
	}
	n, err := s.txRepo.Unverify(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, s.transitionError(ctx, id)
	}

	s.audit.Log(ctx, audit.Event{
		Type:      audit.TransactionUnverified,
		UserID:    actor.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"transactionId": id},
	})
	return s.txRepo.GetByID(ctx, id)
}

// transitionError explains a guarded update that matched no row
func (s *TransactionService) transitionError(ctx context.Context, id string) error {
	if _, err := s.txRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

// SubmitToSwift marks every still-verified id as submitted and returns how
// many rows changed. Unknown or unverified ids are skipped.
func (s *TransactionService) SubmitToSwift(ctx context.Context, actor Actor, ids []string, meta RequestMeta) (int64, error) {
	if !actor.Role.Satisfies(domain.StaffRoles...) {
		return 0, domain.ErrForbidden
	}
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, domain.NewValidationError("transactionIds must contain at least one id")
	}
	if len(unique) > MaxBatchSize {
		return 0, domain.NewValidationError(fmt.Sprintf("transactionIds must contain at most %d ids", MaxBatchSize))
	}

	n, err := s.txRepo.SubmitVerified(ctx, unique, actor.ID, s.clock.now())
	if err != nil {
		return 0, err
	}

	s.logger.Info("transactions submitted", "by", actor.ID, "requested", len(unique), "submitted", n)
	s.audit.Log(ctx, audit.Event{
		Type:      audit.TransactionsSubmitted,
		UserID:    actor.ID,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Details:   map[string]any{"requested": len(unique), "submitted": n, "transactionIds": unique},
	})
	return n, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
