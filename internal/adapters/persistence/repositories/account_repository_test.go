package repositories

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

func newAccount(idNumber, accountNumber string, role domain.Role) *models.Account {
	return &models.Account{
		FullName:      "Jane Doe",
		IDNumber:      idNumber,
		AccountNumber: accountNumber,
		Password:      "hash",
		Role:          role,
	}
}

func TestAccountRepository_CreateAndGet(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), time.Second)

	acct := newAccount("1234567890123", "12345678", domain.RoleCustomer)
	require.NoError(t, repo.Create(ctx, acct))
	assert.Len(t, acct.ID, 36)

	got, err := repo.GetByAccountNumber(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
	assert.Equal(t, domain.RoleCustomer, got.Role)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_UniqueIdentity(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), time.Second)

	require.NoError(t, repo.Create(ctx, newAccount("1234567890123", "12345678", domain.RoleCustomer)))

	err := repo.Create(ctx, newAccount("1234567890123", "87654321", domain.RoleCustomer))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	err = repo.Create(ctx, newAccount("9999999999999", "12345678", domain.RoleCustomer))
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	exists, err := repo.ExistsByIdentity(ctx, "0000000000000", "12345678")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByIdentity(ctx, "0000000000000", "00000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAccountRepository_ExistsByRole(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), time.Second)

	ok, err := repo.ExistsByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Create(ctx, newAccount("1234567890123", "12345678", domain.RoleAdmin)))
	ok, err = repo.ExistsByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountRepository_CompareAndSetLockout(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), time.Second)
	acct := newAccount("1234567890123", "12345678", domain.RoleCustomer)
	require.NoError(t, repo.Create(ctx, acct))

	now := time.Now().UTC()
	ok, err := repo.CompareAndSetLockout(ctx, acct.ID, 0, LockoutState{FailedLoginAttempts: 1, LastFailedLogin: &now})
	require.NoError(t, err)
	assert.True(t, ok)

	// stale expectation loses
	ok, err = repo.CompareAndSetLockout(ctx, acct.ID, 0, LockoutState{FailedLoginAttempts: 1, LastFailedLogin: &now})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FailedLoginAttempts)
	require.NotNil(t, got.LastFailedLogin)
	assert.Nil(t, got.LockedUntil)
}

func TestAccountRepository_CompareAndSetLockoutConcurrent(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), 5*time.Second)
	acct := newAccount("1234567890123", "12345678", domain.RoleCustomer)
	require.NoError(t, repo.Create(ctx, acct))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompareAndSetLockout(ctx, acct.ID, 0, LockoutState{FailedLoginAttempts: 1})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins, "exactly one writer may win the swap")
}

func TestAccountRepository_RecordLoginSuccessAndReset(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), time.Second)
	acct := newAccount("1234567890123", "12345678", domain.RoleCustomer)
	require.NoError(t, repo.Create(ctx, acct))

	now := time.Now().UTC()
	until := now.Add(15 * time.Minute)
	_, err := repo.CompareAndSetLockout(ctx, acct.ID, 0, LockoutState{FailedLoginAttempts: 5, LockedUntil: &until, LastFailedLogin: &now})
	require.NoError(t, err)

	locked, err := repo.ListLocked(ctx, 5, now)
	require.NoError(t, err)
	require.Len(t, locked, 1)

	history := []domain.LoginAttempt{{IP: "1.1.1.1", UserAgent: "ua", Timestamp: now, Success: true}}
	require.NoError(t, repo.RecordLoginSuccess(ctx, acct.ID, history))

	got, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginAttempts)
	assert.Nil(t, got.LockedUntil)
	assert.Nil(t, got.LastFailedLogin)
	require.Len(t, got.LoginHistory, 1)
	assert.Equal(t, "1.1.1.1", got.LoginHistory[0].IP)

	locked, err = repo.ListLocked(ctx, 5, now)
	require.NoError(t, err)
	assert.Empty(t, locked)
}

func TestAccountRepository_UpdatePassword(t *testing.T) {
	ctx := testutil.Ctx(t)
	repo := NewAccountRepository(testutil.NewDB(t), time.Second)
	acct := newAccount("1234567890123", "12345678", domain.RoleCustomer)
	require.NoError(t, repo.Create(ctx, acct))

	require.NoError(t, repo.UpdatePassword(ctx, acct.ID, "new-hash"))
	got, err := repo.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.Password)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "missing", "x"), domain.ErrNotFound)
}
