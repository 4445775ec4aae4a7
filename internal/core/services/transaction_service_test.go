package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/pagination"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

var employee = Actor{ID: "employee-1", Role: domain.RoleEmployee}

func paymentInput(amount string) *PaymentInput {
	return &PaymentInput{
		Amount:           decimal.RequireFromString(amount),
		RecipientName:    "John Smith",
		RecipientAccount: "87654321",
		SwiftCode:        "abcdusaaxxx",
	}
}

func createPayment(t *testing.T, h *harness, customer Actor) *models.Transaction {
	t.Helper()
	tx, err := h.tx.CreatePayment(testutil.Ctx(t), customer, paymentInput("150.50"), meta)
	require.NoError(t, err)
	return tx
}

func customerActor(t *testing.T, h *harness) Actor {
	acct := h.customer(t, "1234567890123", "12345678")
	return Actor{ID: acct.ID, Role: acct.Role}
}

func TestCreatePayment_AppliesDefaults(t *testing.T) {
	h := newHarness(t)
	customer := customerActor(t, h)

	tx := createPayment(t, h, customer)
	assert.Equal(t, domain.StatusPending, tx.Status)
	assert.False(t, tx.Verified)
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, "SWIFT", tx.Provider)
	assert.Equal(t, "ABCDUSAAXXX", tx.SwiftCode)
	assert.Equal(t, "Payment to John Smith", tx.Description)
	assert.Equal(t, customer.ID, tx.CustomerID)
}

func TestCreatePayment_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	customer := customerActor(t, h)

	cases := map[string]*PaymentInput{
		"zero amount":     paymentInput("0"),
		"negative amount": paymentInput("-5"),
		"over limit":      paymentInput("1000000.01"),
		"three decimals":  paymentInput("10.005"),
	}
	bad := paymentInput("10")
	bad.SwiftCode = "BAD"
	cases["bad swift"] = bad
	bad = paymentInput("10")
	bad.Currency = "dollars"
	cases["bad currency"] = bad
	bad = paymentInput("10")
	bad.RecipientAccount = "12"
	cases["bad account"] = bad

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.tx.CreatePayment(ctx, customer, in, meta)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err := h.tx.CreatePayment(ctx, customer, paymentInput("1000000"), meta)
	assert.NoError(t, err)
}

func TestCreatePayment_EmployeeForbidden(t *testing.T) {
	h := newHarness(t)

	_, err := h.tx.CreatePayment(testutil.Ctx(t), employee, paymentInput("10"), meta)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestVerifyUnverify(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	tx := createPayment(t, h, customerActor(t, h))

	verified, err := h.tx.Verify(ctx, employee, tx.ID, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, verified.Status)
	assert.True(t, verified.Verified)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, employee.ID, *verified.VerifiedBy)

	_, err = h.tx.Verify(ctx, employee, tx.ID, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.tx.Verify(ctx, employee, "missing", meta)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	pending, err := h.tx.Unverify(ctx, employee, tx.ID, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pending.Status)
	assert.False(t, pending.Verified)
	assert.Nil(t, pending.VerifiedBy)
	assert.Nil(t, pending.VerifiedAt)

	_, err = h.tx.Unverify(ctx, employee, tx.ID, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestVerify_CustomerForbidden(t *testing.T) {
	h := newHarness(t)
	customer := customerActor(t, h)
	tx := createPayment(t, h, customer)

	_, err := h.tx.Verify(testutil.Ctx(t), customer, tx.ID, meta)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSubmitToSwift(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	customer := customerActor(t, h)

	a := createPayment(t, h, customer)
	b := createPayment(t, h, customer)
	c := createPayment(t, h, customer)
	_, err := h.tx.Verify(ctx, employee, a.ID, meta)
	require.NoError(t, err)
	_, err = h.tx.Verify(ctx, employee, b.ID, meta)
	require.NoError(t, err)

	n, err := h.tx.SubmitToSwift(ctx, employee, []string{a.ID, a.ID, b.ID, c.ID, "missing"}, meta)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := h.tx.Get(ctx, employee, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, got.Status)
	require.NotNil(t, got.SubmittedBy)
	assert.NotNil(t, got.SubmittedToSwiftAt)

	got, err = h.tx.Get(ctx, employee, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)

	// a second submission of the same batch changes nothing
	n, err = h.tx.SubmitToSwift(ctx, employee, []string{a.ID, b.ID}, meta)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = h.tx.SubmitToSwift(ctx, employee, nil, meta)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestListings(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	customer := customerActor(t, h)
	other := h.customer(t, "2234567890123", "22345678")
	otherActor := Actor{ID: other.ID, Role: other.Role}

	a := createPayment(t, h, customer)
	createPayment(t, h, customer)
	createPayment(t, h, otherActor)
	_, err := h.tx.Verify(ctx, employee, a.ID, meta)
	require.NoError(t, err)

	page := pagination.New(1, 10)

	mine, total, err := h.tx.ListMine(ctx, customer, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, tx := range mine {
		assert.Equal(t, customer.ID, tx.CustomerID)
	}

	pending, total, err := h.tx.ListPending(ctx, employee, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, tx := range pending {
		assert.Equal(t, domain.StatusPending, tx.Status)
	}

	verified, total, err := h.tx.ListVerified(ctx, employee, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, a.ID, verified[0].ID)

	_, _, err = h.tx.ListPending(ctx, customer, page)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
