package domain

import (
	"strings"
	"time"
)

// Role represents account role in the system
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// ParseRole normalizes a role string. Matching is case-insensitive so
// "admin", "ADMIN" and "Admin" all resolve to RoleAdmin.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return RoleCustomer, true
	case "employee":
		return RoleEmployee, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Satisfies is the single authorization predicate: the role must be a member
// of allowed, and Admin satisfies any non-empty set.
func (r Role) Satisfies(allowed ...Role) bool {
	role, ok := ParseRole(string(r))
	if !ok {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	for _, a := range allowed {
		if want, ok := ParseRole(string(a)); ok && want == role {
			return true
		}
	}
	return false
}

// StaffRoles are the roles allowed to work the verification queue
var StaffRoles = []Role{RoleEmployee, RoleAdmin}

// TransactionStatus is the workflow state of a payment
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusVerified  TransactionStatus = "verified"
	StatusSubmitted TransactionStatus = "submitted"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Payment defaults
const (
	DefaultCurrency = "USD"
	DefaultProvider = "SWIFT"
	MaxAmount       = 1_000_000
)

// LoginAttempt is one entry of an account's login history
type LoginAttempt struct {
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// MaxLoginHistory bounds the stored login history per account
const MaxLoginHistory = 10

// AppendLoginHistory appends entry, evicting the oldest entries beyond
// MaxLoginHistory. The input slice is not modified.
func AppendLoginHistory(history []LoginAttempt, entry LoginAttempt) []LoginAttempt {
	out := make([]LoginAttempt, 0, MaxLoginHistory)
	out = append(out, history...)
	out = append(out, entry)
	if len(out) > MaxLoginHistory {
		out = out[len(out)-MaxLoginHistory:]
	}
	return out
}
