// internal/auth/token.go
package auth

import (
	"fmt"
	"strconv"
	"time"

	"bankcards/internal/domain"
	"bankcards/internal/util"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when no positive lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
// The subject claim carries the user id.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for user.
func (m *TokenManager) Issue(user *domain.User) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Resolve verifies a token and returns the caller it identifies.
// Any failure is reported as util.ErrUnauthenticated.
func (m *TokenManager) Resolve(tokenString string) (domain.Caller, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", util.ErrUnauthenticated, err)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: invalid subject", util.ErrUnauthenticated)
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", util.ErrUnauthenticated, err)
	}
	return domain.Caller{UserID: userID, Role: role}, nil
}
