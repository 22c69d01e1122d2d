package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

const claimsKey = "auth_claims"

// ErrRevoked is reported to callers as an invalid credential.
var ErrRevoked = errors.New("credential revoked")

// AuthMiddleware validates bearer tokens and stores the verified claims.
type AuthMiddleware struct {
	tokens      *TokenManager
	revocations RevocationStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthMiddleware constructs middleware. A nil store disables revocation checks.
func NewAuthMiddleware(tokens *TokenManager, revocations RevocationStore, logger *zap.Logger) *AuthMiddleware {
	if revocations == nil {
		revocations = NoopRevocationStore{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, revocations: revocations, logger: logger, now: time.Now}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, err := ExtractToken(c.Get(fiber.HeaderAuthorization), c.Query(TokenQueryParam))
	if err != nil {
		return m.reject(c, err)
	}

	claims, err := m.tokens.Verify(raw, m.now())
	if err != nil {
		return m.reject(c, err)
	}

	revoked, err := m.revocations.IsRevoked(c.UserContext(), claims.ID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if revoked {
		return m.reject(c, fmt.Errorf("%w: %w", ErrInvalidCredential, ErrRevoked))
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, cause error) error {
	m.logger.Debug("credential rejected",
		zap.String("path", c.Path()),
		zap.Error(cause))
	return apperrors.NewUnauthorized(cause)
}

// ClaimsFromContext retrieves the verified claims of the caller.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
