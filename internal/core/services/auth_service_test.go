package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

func TestRegister_CreatesCustomer(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)

	acct, err := h.auth.Register(ctx, &RegisterInput{
		FullName:      "  Jane Doe ",
		IDNumber:      "1234567890123",
		AccountNumber: "12345678",
		Password:      strongPassword,
	}, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, acct.Role)
	assert.Equal(t, "Jane Doe", acct.FullName)
	assert.NotEqual(t, strongPassword, acct.Password)
	assert.Contains(t, h.auditBuf.events(), string(audit.Registration))
}

func TestRegister_ListsEveryProblem(t *testing.T) {
	h := newHarness(t)

	_, err := h.auth.Register(testutil.Ctx(t), &RegisterInput{
		FullName:      "J4ne",
		IDNumber:      "123",
		AccountNumber: "abc",
		Password:      "short",
	}, meta)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, "fullName must be 2-50 letters and spaces")
	assert.Contains(t, verr.Problems, "idNumber must be exactly 13 digits")
	assert.Contains(t, verr.Problems, "accountNumber must be 8-12 digits")
	assert.Contains(t, verr.Problems, "password must be at least 8 characters long")
	assert.Contains(t, verr.Problems, "password must contain at least one special character")
}

func TestRegister_WeakPassword(t *testing.T) {
	h := newHarness(t)

	in := registerInput("1234567890123", "12345678")
	in.Password = "alllowercase"
	_, err := h.auth.Register(testutil.Ctx(t), in, meta)

	var weak *domain.WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.Len(t, weak.Problems, 3)

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRegister_Duplicate(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	h.customer(t, "1234567890123", "12345678")

	_, err := h.auth.Register(ctx, registerInput("1234567890123", "87654321"), meta)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	_, err = h.auth.Register(ctx, registerInput("3210987654321", "12345678"), meta)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestRegisterEmployee_RequiresAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	customer := h.customer(t, "1234567890123", "12345678")

	_, err := h.auth.RegisterEmployee(ctx, customer.ID, registerInput("2234567890123", "22345678"), meta)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.auth.RegisterEmployee(ctx, "no-such-user", registerInput("2234567890123", "22345678"), meta)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	admin := h.admin(t)
	emp, err := h.auth.RegisterEmployee(ctx, admin.ID, registerInput("2234567890123", "22345678"), meta)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, emp.Role)
	assert.Contains(t, h.auditBuf.events(), string(audit.EmployeeRegistered))
}

func TestRegisterAdmin_OnlyOnce(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)

	admin := h.admin(t)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err := h.auth.RegisterAdmin(ctx, registerInput("9000000000002", "900000002"), meta)
	assert.ErrorIs(t, err, domain.ErrAdminExists)
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	acct := h.customer(t, "1234567890123", "12345678")

	res, err := h.auth.Login(ctx, &LoginInput{AccountNumber: "12345678", Password: strongPassword}, meta)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, res.Account.ID)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.WithinDuration(t, h.clock.Now().Add(15*time.Minute), res.ExpiresAt, 0)

	claims, err := h.tokens.VerifyAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, claims.UserID)
	assert.Equal(t, string(domain.RoleCustomer), claims.Role)

	stored, err := h.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Len(t, stored.LoginHistory, 1)
	assert.Equal(t, meta.IP, stored.LoginHistory[0].IP)
	assert.True(t, stored.LoginHistory[0].Success)
	assert.Contains(t, h.auditBuf.events(), string(audit.LoginSuccess))
}

func TestLogin_UnknownAccountAndWrongPassword(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	h.customer(t, "1234567890123", "12345678")

	_, err := h.auth.Login(ctx, &LoginInput{AccountNumber: "99999999", Password: strongPassword}, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = h.auth.Login(ctx, &LoginInput{AccountNumber: "12345678", Password: "Wr0ng!Pass"}, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = h.auth.Login(ctx, &LoginInput{AccountNumber: "", Password: ""}, meta)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_LockoutScenario(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	acct := h.customer(t, "1234567890123", "12345678")
	start := h.clock.Now()

	wrong := &LoginInput{AccountNumber: "12345678", Password: "Wr0ng!Pass"}
	for i := 0; i < 5; i++ {
		_, err := h.auth.Login(ctx, wrong, meta)
		require.ErrorIs(t, err, domain.ErrInvalidCredentials, "attempt %d", i+1)
	}

	// the correct password is refused while locked
	right := &LoginInput{AccountNumber: "12345678", Password: strongPassword}
	_, err := h.auth.Login(ctx, right, meta)
	var locked *domain.LockedError
	require.ErrorAs(t, err, &locked)
	assert.WithinDuration(t, start.Add(15*time.Minute), locked.Until, 0)

	events := h.auditBuf.events()
	assert.Contains(t, events, string(audit.AccountLockout))
	assert.Contains(t, events, string(audit.AccountLockedAttempt))

	h.clock.Advance(15 * time.Minute)
	res, err := h.auth.Login(ctx, right, meta)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, res.Account.Role)

	stored, err := h.accounts.GetByID(ctx, acct.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
	assert.Nil(t, stored.LastFailedLogin)
}

func TestLogout_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	h.customer(t, "1234567890123", "12345678")

	res, err := h.auth.Login(ctx, &LoginInput{AccountNumber: "12345678", Password: strongPassword}, meta)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, res.RefreshToken, meta))
	require.NoError(t, h.auth.Logout(ctx, res.RefreshToken, meta))
	require.NoError(t, h.auth.Logout(ctx, "garbage", meta))

	_, err = h.auth.Refresh(ctx, res.RefreshToken, meta)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
}

func TestLogoutAll(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	acct := h.customer(t, "1234567890123", "12345678")

	login := &LoginInput{AccountNumber: "12345678", Password: strongPassword}
	_, err := h.auth.Login(ctx, login, meta)
	require.NoError(t, err)
	_, err = h.auth.Login(ctx, login, meta)
	require.NoError(t, err)

	n, err := h.auth.LogoutAll(ctx, acct.ID, meta)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	active, err := h.tokens.ActiveSessions(ctx, acct.ID)
	require.NoError(t, err)
	assert.Zero(t, active)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	acct := h.customer(t, "1234567890123", "12345678")

	got, err := h.auth.Me(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345678", got.AccountNumber)

	_, err = h.auth.Me(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
