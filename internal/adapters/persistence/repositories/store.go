package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
)

// DefaultTimeout bounds every store call
const DefaultTimeout = 5 * time.Second

// ErrDuplicateKey is returned when a unique index rejects a write
var ErrDuplicateKey = errors.New("duplicate key")

// store carries the shared db handle and per-call deadline
type store struct {
	db      *gorm.DB
	timeout time.Duration
}

func newStore(db *gorm.DB, timeout time.Duration) store {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return store{db: db, timeout: timeout}
}

// conn returns a session bound to a context with the store deadline
func (s store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// mapErr maps err and treats any failure after the session deadline as transient
func mapErr(db *gorm.DB, err error) error {
	if err == nil {
		return nil
	}
	if db != nil && db.Statement != nil && db.Statement.Context != nil && db.Statement.Context.Err() != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return mapError(err)
}

// mapError translates driver errors into the domain taxonomy
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	case isTransient(err):
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}
	return err
}

// MySQL ER_DUP_ENTRY and Postgres unique_violation
const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

func isDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == postgresUniqueViolate
	}
	// the sqlite driver only reports constraint failures as text
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "invalid connection") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sql: database is closed")
}
