package password

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastArgon = &Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHasher_Bcrypt(t *testing.T) {
	ctx := context.Background()
	h := NewHasher(WithCost(MinCost))

	hash1, err := h.Hash(ctx, "Str0ng!Pass")
	require.NoError(t, err)
	hash2, err := h.Hash(ctx, "Str0ng!Pass")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2, "salt must differ per call")
	assert.True(t, strings.HasPrefix(hash1, "$2a$10$"))
	assert.True(t, h.Verify(ctx, "Str0ng!Pass", hash1))
	assert.True(t, h.Verify(ctx, "Str0ng!Pass", hash2))
	assert.False(t, h.Verify(ctx, "wrong", hash1))
}

func TestHasher_CostFloor(t *testing.T) {
	h := NewHasher(WithCost(4))
	hash, err := h.Hash(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$10$"))
}

func TestHasher_Argon2(t *testing.T) {
	ctx := context.Background()
	h := NewHasher(WithAlgorithm(Argon2id), WithArgon2Params(fastArgon))

	hash, err := h.Hash(ctx, "Str0ng!Pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.True(t, h.Verify(ctx, "Str0ng!Pass", hash))
	assert.False(t, h.Verify(ctx, "Str0ng!Pasz", hash))

	// a bcrypt hasher still verifies argon2 hashes
	assert.True(t, NewHasher(WithCost(MinCost)).Verify(ctx, "Str0ng!Pass", hash))
}

func TestHasher_MalformedHash(t *testing.T) {
	ctx := context.Background()
	h := NewHasher(WithCost(MinCost))

	for _, hash := range []string{
		"",
		"plain-text-password",
		"$2a$10$short",
		"$argon2id$",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=0,p=0$c2FsdA$aGFzaA",
	} {
		t.Run(hash, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify(ctx, "password", hash))
			})
		})
	}
}

func TestHasher_CancelledContext(t *testing.T) {
	h := NewHasher(WithCost(MinCost), WithConcurrency(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	_, err := h.Hash(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, h.Verify(ctx, "x", "$2a$10$whatever"))
}

func TestHasher_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	h := NewHasher(WithCost(MinCost), WithConcurrency(2))

	var wg sync.WaitGroup
	errs := make(chan error, 6)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Hash(ctx, "Str0ng!Pass")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token"))
	assert.NotEqual(t, a, HashToken("token2"))
}

func TestPolicy_Check(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		password string
		want     int
	}{
		{"strong", DefaultPolicy(), "Str0ng!Pass", 0},
		{"every rule violated", DefaultPolicy(), "   ", 5},
		{"short lowercase only", DefaultPolicy(), "abc", 4},
		{"missing symbol", DefaultPolicy(), "Str0ngPass", 1},
		{"symbols disabled", Policy{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true}, "Str0ngPass", 0},
		{"only length", Policy{MinLength: 12}, "short", 1},
		{"zero length defaults to 8", Policy{}, "1234567", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.policy.Check(tt.password), tt.want)
		})
	}
}

func TestPolicy_CheckListsEveryViolation(t *testing.T) {
	problems := DefaultPolicy().Check("abc")
	assert.Equal(t, []string{
		"password must be at least 8 characters long",
		"password must contain at least one uppercase letter",
		"password must contain at least one number",
		"password must contain at least one special character",
	}, problems)
}
