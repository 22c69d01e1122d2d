package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/video-service/internal/domain"
	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

// ErrInsufficientRole means the caller is authenticated but not allowed.
var ErrInsufficientRole = errors.New("insufficient role")

// Authorize allows any claims when required is empty, otherwise only
// claims whose role is a member of required.
func Authorize(claims *Claims, required domain.RoleSet) error {
	if claims == nil {
		return ErrMissingCredential
	}
	if required.Empty() || required.Has(claims.Role) {
		return nil
	}
	return ErrInsufficientRole
}

// RequireRoles declares the role set a route needs. It must run after
// AuthMiddleware.Handle.
func RequireRoles(roles ...domain.Role) fiber.Handler {
	required := domain.NewRoleSet(roles...)

	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(ErrMissingCredential)
		}
		if err := Authorize(claims, required); err != nil {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated admits any verified caller.
func RequireAuthenticated() fiber.Handler {
	return RequireRoles()
}
