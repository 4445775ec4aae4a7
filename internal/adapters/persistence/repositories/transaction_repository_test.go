package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

func seedTransaction(t *testing.T, db *gorm.DB, customerID string, status domain.TransactionStatus, created time.Time) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		CustomerID:       customerID,
		Amount:           decimal.RequireFromString("100.50"),
		Currency:         "USD",
		RecipientName:    "John Smith",
		RecipientAccount: "123456789",
		SwiftCode:        "DEUTDEFF",
		Provider:         "SWIFT",
		Status:           status,
		Verified:         status == domain.StatusVerified,
		CreatedAt:        created,
	}
	require.NoError(t, db.Create(tx).Error)
	return tx
}

func TestTransactionRepository_ListByCustomer(t *testing.T) {
	ctx := testutil.Ctx(t)
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db, time.Second)
	base := time.Now().UTC()

	older := seedTransaction(t, db, "cust-a", domain.StatusPending, base)
	newer := seedTransaction(t, db, "cust-a", domain.StatusPending, base.Add(time.Minute))
	seedTransaction(t, db, "cust-b", domain.StatusPending, base)

	txs, total, err := repo.ListByCustomer(ctx, "cust-a", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, txs, 2)
	assert.Equal(t, newer.ID, txs[0].ID)
	assert.Equal(t, older.ID, txs[1].ID)
	for _, tx := range txs {
		assert.Equal(t, "cust-a", tx.CustomerID)
	}
	assert.True(t, txs[0].Amount.Equal(decimal.RequireFromString("100.50")))

	txs, total, err = repo.ListByCustomer(ctx, "cust-a", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, txs, 1)
	assert.Equal(t, older.ID, txs[0].ID)
}

func TestTransactionRepository_VerifyGuard(t *testing.T) {
	ctx := testutil.Ctx(t)
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db, time.Second)
	tx := seedTransaction(t, db, "cust", domain.StatusPending, time.Now().UTC())
	at := time.Now().UTC()

	n, err := repo.Verify(ctx, tx.ID, "emp-1", at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.Verify(ctx, tx.ID, "emp-2", at)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "already verified")

	got, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, got.Status)
	assert.True(t, got.Verified)
	require.NotNil(t, got.VerifiedBy)
	assert.Equal(t, "emp-1", *got.VerifiedBy)

	n, err = repo.Unverify(ctx, tx.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err = repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.False(t, got.Verified)
	assert.Nil(t, got.VerifiedBy)
	assert.Nil(t, got.VerifiedAt)

	n, err = repo.Unverify(ctx, tx.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestTransactionRepository_SubmitVerified(t *testing.T) {
	ctx := testutil.Ctx(t)
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db, time.Second)
	now := time.Now().UTC()

	v1 := seedTransaction(t, db, "cust", domain.StatusVerified, now)
	v2 := seedTransaction(t, db, "cust", domain.StatusVerified, now)
	p := seedTransaction(t, db, "cust", domain.StatusPending, now)

	n, err := repo.SubmitVerified(ctx, []string{v1.ID, v2.ID, p.ID, "missing"}, "emp-1", now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Nil(t, got.SubmittedBy)

	got, err = repo.GetByID(ctx, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	require.NotNil(t, got.SubmittedBy)
	assert.Equal(t, "emp-1", *got.SubmittedBy)
	assert.NotNil(t, got.SubmittedToSwiftAt)

	n, err = repo.SubmitVerified(ctx, []string{v1.ID}, "emp-1", now)
	require.NoError(t, err)
	assert.Zero(t, n, "already submitted")

	n, err = repo.SubmitVerified(ctx, nil, "emp-1", now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransactionRepository_ListQueues(t *testing.T) {
	ctx := testutil.Ctx(t)
	db := testutil.NewDB(t)
	repo := NewTransactionRepository(db, time.Second)
	now := time.Now().UTC()

	p := seedTransaction(t, db, "cust", domain.StatusPending, now)
	v := seedTransaction(t, db, "cust", domain.StatusVerified, now)
	seedTransaction(t, db, "cust", domain.StatusSubmitted, now)

	pending, total, err := repo.ListPending(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, pending, 1)
	assert.Equal(t, p.ID, pending[0].ID)

	verified, total, err := repo.ListVerified(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, verified, 1)
	assert.Equal(t, v.ID, verified[0].ID)
}

func TestTransactionRepository_GetByIDNotFound(t *testing.T) {
	repo := NewTransactionRepository(testutil.NewDB(t), time.Second)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
