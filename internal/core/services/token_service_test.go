package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

func login(t *testing.T, h *harness) *AuthResult {
	t.Helper()
	h.customer(t, "1234567890123", "12345678")
	res, err := h.auth.Login(testutil.Ctx(t), &LoginInput{AccountNumber: "12345678", Password: strongPassword}, meta)
	require.NoError(t, err)
	return res
}

func TestRefresh_RotatesToken(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	first := login(t, h)

	second, err := h.tokens.Refresh(ctx, first.RefreshToken, meta)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.Account.ID, second.Account.ID)

	third, err := h.tokens.Refresh(ctx, second.RefreshToken, meta)
	require.NoError(t, err)
	assert.NotEmpty(t, third.AccessToken)
}

func TestRefresh_ReuseRevokesEverySession(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	first := login(t, h)

	second, err := h.tokens.Refresh(ctx, first.RefreshToken, meta)
	require.NoError(t, err)

	_, err = h.tokens.Refresh(ctx, first.RefreshToken, meta)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
	assert.Contains(t, h.auditBuf.events(), string(audit.TokenReuseDetected))

	// the descendant of the leaked token is gone too
	_, err = h.tokens.Refresh(ctx, second.RefreshToken, meta)
	assert.ErrorIs(t, err, domain.ErrTokenRevoked)
}

func TestRefresh_ConcurrentCallsShareOneRotation(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	first := login(t, h)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*AuthResult
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.tokens.Refresh(ctx, first.RefreshToken, meta)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrTokenRevoked)
				return
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.NotEmpty(t, results)
	for _, res := range results {
		assert.Equal(t, results[0].RefreshToken, res.RefreshToken)
	}
}

func TestRefresh_RejectsBadTokens(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	first := login(t, h)

	_, err := h.tokens.Refresh(ctx, "", meta)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, err = h.tokens.Refresh(ctx, "not.a.jwt", meta)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	// an access token is signed with the other secret
	_, err = h.tokens.Refresh(ctx, first.AccessToken, meta)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	h.clock.Advance(8 * 24 * time.Hour)
	_, err = h.tokens.Refresh(ctx, first.RefreshToken, meta)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestVerifyAccessToken_Expiry(t *testing.T) {
	h := newHarness(t)
	first := login(t, h)

	_, err := h.tokens.VerifyAccessToken(first.AccessToken)
	require.NoError(t, err)

	h.clock.Advance(16 * time.Minute)
	_, err = h.tokens.VerifyAccessToken(first.AccessToken)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	_, err = h.tokens.VerifyAccessToken(first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestCleanupExpired(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	first := login(t, h)

	n, err := h.tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	h.clock.Advance(8 * 24 * time.Hour)
	n, err = h.tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = h.tokens.Refresh(ctx, first.RefreshToken, meta)
	assert.Error(t, err)
}
