package password

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12
	// MinCost is the lowest bcrypt cost accepted by the hasher
	MinCost = 10
)

// Algorithm selects the one-way function used for new hashes
type Algorithm string

const (
	Bcrypt   Algorithm = "bcrypt"
	Argon2id Algorithm = "argon2id"
)

// Hasher hashes and verifies passwords. Hashing is CPU bound, so the number
// of concurrent hash operations is capped by a weighted semaphore.
type Hasher struct {
	algorithm Algorithm
	cost      int
	argon     *Params
	sem       *semaphore.Weighted
}

// Option configures a Hasher
type Option func(*Hasher)

// WithAlgorithm sets the algorithm used for new hashes
func WithAlgorithm(a Algorithm) Option {
	return func(h *Hasher) { h.algorithm = a }
}

// WithCost sets the bcrypt cost. Values below MinCost are raised to MinCost.
func WithCost(cost int) Option {
	return func(h *Hasher) { h.cost = cost }
}

// WithArgon2Params overrides the argon2id parameters
func WithArgon2Params(p *Params) Option {
	return func(h *Hasher) { h.argon = p }
}

// WithConcurrency sets the maximum number of concurrent hash operations
func WithConcurrency(n int) Option {
	return func(h *Hasher) {
		if n > 0 {
			h.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewHasher creates a password hasher
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		algorithm: Bcrypt,
		cost:      DefaultCost,
		argon:     DefaultParams(),
		sem:       semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cost < MinCost {
		h.cost = MinCost
	}
	if h.cost > bcrypt.MaxCost {
		h.cost = bcrypt.MaxCost
	}
	return h
}

// Hash hashes a password with a fresh random salt
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	switch h.algorithm {
	case Argon2id:
		return HashArgon2(password, h.argon)
	case Bcrypt, "":
		bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		if err != nil {
			return "", err
		}
		return string(bytes), nil
	default:
		return "", fmt.Errorf("unsupported password algorithm %q", h.algorithm)
	}
}

// Verify compares a password with a stored hash. A malformed hash, or a
// cancelled context, counts as a mismatch.
func (h *Hasher) Verify(ctx context.Context, password, hash string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	if strings.HasPrefix(hash, "$argon2id$") {
		ok, err := VerifyArgon2(password, hash)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashToken hashes a token using SHA256 (refresh and reset tokens)
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
