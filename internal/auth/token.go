package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/video-service/internal/domain"
)

// Credential failures. Callers must not reveal which one occurred.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpired           = errors.New("credential expired")
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Claims describes JWT payload.
type Claims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	RollNo string      `json:"rollNo,omitempty"`
	jwt.RegisteredClaims
}

// DefaultTTL returns the lifetime applied when GenerateToken gets no explicit one.
func (tm *TokenManager) DefaultTTL() time.Duration {
	return tm.ttl
}

// GenerateToken builds and signs a JWT for the user. A non-positive ttl
// falls back to the manager default.
func (tm *TokenManager) GenerateToken(user *domain.User, ttl time.Duration, now time.Time) (string, *Claims, error) {
	if ttl <= 0 {
		ttl = tm.ttl
	}
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RollNo: user.RollNo,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, claims, nil
}

// Verify checks the signature, then the claims structure, then expiry
// relative to now. Expiry yields ErrExpired; every other failure yields
// ErrInvalidCredential.
func (tm *TokenManager) Verify(raw string, now time.Time) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidCredential)
	}
	if claims.UserID == "" || !claims.Role.Valid() || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: incomplete claims", ErrInvalidCredential)
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, fmt.Errorf("%w: token not valid yet", ErrInvalidCredential)
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: expired at %s", ErrExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return claims, nil
}
