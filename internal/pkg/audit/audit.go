package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// EventType names a security-relevant event
type EventType string

const (
	LoginSuccess           EventType = "LOGIN_SUCCESS"
	FailedLoginAttempt     EventType = "FAILED_LOGIN_ATTEMPT"
	AccountLockout         EventType = "ACCOUNT_LOCKOUT"
	AccountLockedAttempt   EventType = "ACCOUNT_LOCKED_ATTEMPT"
	AdminAction            EventType = "ADMIN_ACTION"
	PasswordResetRequested EventType = "PASSWORD_RESET_REQUESTED"
	PasswordResetCompleted EventType = "PASSWORD_RESET_COMPLETED"
	PasswordResetFailed    EventType = "PASSWORD_RESET_FAILED"
	RateLimitExceeded      EventType = "RATE_LIMIT_EXCEEDED"
	CSRFViolation          EventType = "CSRF_VIOLATION"
	SuspiciousActivity     EventType = "SUSPICIOUS_ACTIVITY"
	TokenReuseDetected     EventType = "TOKEN_REUSE_DETECTED"
	Registration           EventType = "REGISTRATION"
	EmployeeRegistered     EventType = "EMPLOYEE_REGISTERED"
	PaymentCreated         EventType = "PAYMENT_CREATED"
	TransactionVerified    EventType = "TRANSACTION_VERIFIED"
	TransactionUnverified  EventType = "TRANSACTION_UNVERIFIED"
	TransactionsSubmitted  EventType = "TRANSACTIONS_SUBMITTED"
	Logout                 EventType = "LOGOUT"
)

// Event is one audit record
type Event struct {
	Type      EventType
	UserID    string
	IP        string
	UserAgent string
	Details   map[string]any
}

// Logger writes append-only JSON lines
type Logger struct {
	mu     sync.Mutex
	logger *slog.Logger
	closer io.Closer
}

// New creates an audit logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{
		logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// Open creates an audit logger appending to the file at path
func Open(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create audit log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	l := New(f)
	l.closer = f
	return l, nil
}

// Discard returns a logger that drops every event
func Discard() *Logger {
	return New(io.Discard)
}

// Log records an event. Writes are serialized so lines never interleave.
func (l *Logger) Log(ctx context.Context, e Event) {
	if l == nil {
		return
	}
	attrs := []any{slog.String("event", string(e.Type))}
	if e.UserID != "" {
		attrs = append(attrs, slog.String("userId", e.UserID))
	}
	if e.IP != "" {
		attrs = append(attrs, slog.String("ip", e.IP))
	}
	if e.UserAgent != "" {
		attrs = append(attrs, slog.String("userAgent", e.UserAgent))
	}
	if len(e.Details) > 0 {
		attrs = append(attrs, slog.Any("details", e.Details))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Log(ctx, levelFor(e.Type), "security event", attrs...)
}

// Close closes the underlying file, if any
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closer.Close()
}

func levelFor(t EventType) slog.Level {
	switch t {
	case AccountLockout, CSRFViolation, SuspiciousActivity, TokenReuseDetected, RateLimitExceeded:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
