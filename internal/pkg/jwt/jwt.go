package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

const issuer = "customer-payment-portal"

// MaxAccessTTL is the upper bound for access token lifetime
const MaxAccessTTL = time.Hour

// Claims represents the access token claims
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims represents the refresh token claims. The token id is carried
// in the registered "jti" claim.
type RefreshClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenID returns the tracked id of the refresh token
func (c *RefreshClaims) TokenID() string {
	return c.ID
}

// Issuer signs and validates HS256 tokens
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer creates a token issuer. Access TTL is capped at MaxAccessTTL.
func NewIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 || accessTTL > MaxAccessTTL {
		accessTTL = MaxAccessTTL
	}
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source (tests)
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// AccessTTL returns the configured access token lifetime
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL returns the configured refresh token lifetime
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// GenerateAccessToken generates a new access token
func (i *Issuer) GenerateAccessToken(userID, role string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.accessTTL)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.accessSecret)
	return signed, expiresAt, err
}

// GenerateRefreshToken generates a new refresh token with the given id
func (i *Issuer) GenerateRefreshToken(userID, role, tokenID string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.refreshSecret)
	return signed, expiresAt, err
}

// ValidateAccessToken validates an access token and returns claims
func (i *Issuer) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := i.parse(tokenString, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns claims
func (i *Issuer) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(tokenString, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (i *Issuer) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
