package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

func TestCronService_RunCleanup(t *testing.T) {
	h := newHarness(t)
	ctx := testutil.Ctx(t)
	login(t, h)
	require.NoError(t, h.store.Set("short", []byte("v"), time.Millisecond))

	svc := NewCronService(h.tokens, h.store, nil, "")
	time.Sleep(5 * time.Millisecond)
	h.clock.Advance(8 * 24 * time.Hour)

	report := svc.RunCleanup(ctx)
	assert.EqualValues(t, 1, report.RefreshTokensDeleted)
	assert.Equal(t, 1, report.KVEntriesSwept)
}

func TestCronService_StartStop(t *testing.T) {
	h := newHarness(t)

	svc := NewCronService(h.tokens, nil, nil, "@every 1h")
	require.NoError(t, svc.Start())
	svc.Stop()

	bad := NewCronService(h.tokens, nil, nil, "not a spec")
	assert.Error(t, bad.Start())
}
