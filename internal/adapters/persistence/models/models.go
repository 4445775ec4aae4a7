package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// ============================================================
// Accounts & Sessions
// ============================================================

// Account represents the accounts table. Customers, employees and admins
// share the table and differ only by role.
type Account struct {
	ID                  string                `gorm:"primaryKey;size:36" json:"id"`
	FullName            string                `gorm:"size:50;not null" json:"fullName"`
	IDNumber            string                `gorm:"uniqueIndex;size:13;not null" json:"idNumber"`
	AccountNumber       string                `gorm:"uniqueIndex;size:12;not null" json:"accountNumber"`
	Password            string                `gorm:"size:255;not null" json:"-"`
	Role                domain.Role           `gorm:"size:20;index;not null" json:"role"`
	FailedLoginAttempts int                   `gorm:"not null;default:0" json:"failedLoginAttempts"`
	LockedUntil         *time.Time            `json:"lockedUntil"`
	LastFailedLogin     *time.Time            `json:"lastFailedLogin"`
	LoginHistory        []domain.LoginAttempt `gorm:"type:text;serializer:json" json:"loginHistory"`
	CreatedAt           time.Time             `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time             `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate assigns a UUID when none is set
func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// IsLocked reports whether a lock is in force at now
func (a *Account) IsLocked(threshold int, now time.Time) bool {
	return a.FailedLoginAttempts >= threshold && a.LockedUntil != nil && a.LockedUntil.After(now)
}

// AccountResponse DTO
type AccountResponse struct {
	ID            string      `json:"id"`
	FullName      string      `json:"fullName"`
	AccountNumber string      `json:"accountNumber"`
	Role          domain.Role `json:"role"`
	CreatedAt     time.Time   `json:"createdAt"`
}

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		FullName:      a.FullName,
		AccountNumber: a.AccountNumber,
		Role:          a.Role,
		CreatedAt:     a.CreatedAt,
	}
}

// LockedAccountResponse is the admin view of a locked account
type LockedAccountResponse struct {
	ID                  string      `json:"id"`
	FullName            string      `json:"fullName"`
	AccountNumber       string      `json:"accountNumber"`
	Role                domain.Role `json:"role"`
	FailedLoginAttempts int         `json:"failedLoginAttempts"`
	LockedUntil         *time.Time  `json:"lockedUntil"`
	LastFailedLogin     *time.Time  `json:"lastFailedLogin"`
}

func (a *Account) ToLockedResponse() *LockedAccountResponse {
	return &LockedAccountResponse{
		ID:                  a.ID,
		FullName:            a.FullName,
		AccountNumber:       a.AccountNumber,
		Role:                a.Role,
		FailedLoginAttempts: a.FailedLoginAttempts,
		LockedUntil:         a.LockedUntil,
		LastFailedLogin:     a.LastFailedLogin,
	}
}

// RefreshToken represents refresh_tokens table. ID is the token's jti.
type RefreshToken struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"userId"`
	TokenHash string     `gorm:"size:64;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	RevokedAt *time.Time `gorm:"index" json:"revokedAt"`
	Account   Account    `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(rt.ExpiresAt)
}

// ============================================================
// Payments
// ============================================================

// Transaction represents the transactions table
type Transaction struct {
	ID                 string                   `gorm:"primaryKey;size:36" json:"id"`
	CustomerID         string                   `gorm:"size:36;index;not null" json:"customerId"`
	Amount             decimal.Decimal          `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency           string                   `gorm:"size:3;not null" json:"currency"`
	RecipientName      string                   `gorm:"size:100;not null" json:"recipientName"`
	RecipientAccount   string                   `gorm:"size:12;not null" json:"recipientAccount"`
	SwiftCode          string                   `gorm:"size:11;not null" json:"swiftCode"`
	Description        string                   `gorm:"size:255" json:"description"`
	Provider           string                   `gorm:"size:20;not null" json:"provider"`
	Status             domain.TransactionStatus `gorm:"size:20;index;not null" json:"status"`
	Verified           bool                     `gorm:"not null;default:false" json:"verified"`
	VerifiedBy         *string                  `gorm:"size:36" json:"verifiedBy"`
	VerifiedAt         *time.Time               `json:"verifiedAt"`
	SubmittedBy        *string                  `gorm:"size:36" json:"submittedBy"`
	SubmittedToSwiftAt *time.Time               `json:"submittedToSwiftAt"`
	CreatedAt          time.Time                `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt          time.Time                `gorm:"autoUpdateTime" json:"updatedAt"`
	Customer           Account                  `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate assigns a UUID when none is set
func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&RefreshToken{},
		&Transaction{},
	)
}
