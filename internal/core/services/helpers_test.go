package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/kv"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/repositories"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/jwt"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/password"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/testutil"
)

const strongPassword = "Str0ng!Pass"

var meta = RequestMeta{IP: "10.0.0.1", UserAgent: "go-test"}

// lockedBuffer is an io.Writer safe for concurrent use
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var line struct {
			Event string `json:"event"`
		}
		if json.Unmarshal(sc.Bytes(), &line) == nil {
			out = append(out, line.Event)
		}
	}
	return out
}

type harness struct {
	clock    *testutil.Clock
	store    *kv.MemoryStore
	auditBuf *lockedBuffer

	accounts     repositories.AccountRepository
	refresh      repositories.RefreshTokenRepository
	transactions repositories.TransactionRepository

	tokens  *TokenService
	lockout *LockoutService
	auth    *AuthService
	reset   *ResetService
	tx      *TransactionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	h := &harness{
		clock:        testutil.NewClock(),
		store:        kv.NewMemoryStore(0),
		auditBuf:     &lockedBuffer{},
		accounts:     repositories.NewAccountRepository(db, time.Second),
		refresh:      repositories.NewRefreshTokenRepository(db, time.Second),
		transactions: repositories.NewTransactionRepository(db, time.Second),
	}
	t.Cleanup(func() { _ = h.store.Close() })

	clock := Clock(h.clock.Now)
	auditLog := audit.New(h.auditBuf)
	hasher := password.NewHasher(password.WithCost(password.MinCost))
	issuer := jwt.NewIssuer("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour).WithClock(h.clock.Now)

	h.tokens = NewTokenService(issuer, h.refresh, h.accounts, auditLog, nil, clock)
	h.lockout = NewLockoutService(h.accounts, auditLog, nil, clock, 5, 15*time.Minute)
	h.auth = NewAuthService(h.accounts, hasher, password.DefaultPolicy(), h.tokens, h.lockout, auditLog, nil)
	h.reset = NewResetService(h.accounts, h.tokens, hasher, password.DefaultPolicy(), h.store, nil, auditLog, nil, clock, 15*time.Minute)
	h.tx = NewTransactionService(h.transactions, auditLog, nil, clock)
	return h
}

func registerInput(idNumber, accountNumber string) *RegisterInput {
	return &RegisterInput{
		FullName:      "Jane Doe",
		IDNumber:      idNumber,
		AccountNumber: accountNumber,
		Password:      strongPassword,
	}
}

func (h *harness) customer(t *testing.T, idNumber, accountNumber string) *models.Account {
	t.Helper()
	acct, err := h.auth.Register(testutil.Ctx(t), registerInput(idNumber, accountNumber), meta)
	require.NoError(t, err)
	return acct
}

func (h *harness) admin(t *testing.T) *models.Account {
	t.Helper()
	acct, err := h.auth.RegisterAdmin(testutil.Ctx(t), registerInput("9000000000001", "900000001"), meta)
	require.NoError(t, err)
	return acct
}
