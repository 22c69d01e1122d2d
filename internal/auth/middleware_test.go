package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/video-service/internal/domain"
	apperrors "github.com/spec-kit/video-service/pkg/util/errorutil"
)

func newTestApp(mw *AuthMiddleware) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/me", mw.Handle, RequireAuthenticated(), func(c *fiber.Ctx) error {
		claims, _ := ClaimsFromContext(c)
		return c.SendString(claims.UserID)
	})
	app.Get("/video", mw.Handle, RequireRoles(domain.RoleFaculty, domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func token(t *testing.T, tm *TokenManager, role domain.Role, ttl time.Duration) (string, *Claims) {
	t.Helper()
	raw, claims, err := tm.GenerateToken(testUser(role), ttl, time.Now())
	require.NoError(t, err)
	return raw, claims
}

func TestAuthMiddlewareStatuses(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	app := newTestApp(NewAuthMiddleware(tm, nil, zap.NewNop()))

	student, _ := token(t, tm, domain.RoleStudent, time.Hour)
	faculty, _ := token(t, tm, domain.RoleFaculty, time.Hour)
	expired, _, err := tm.GenerateToken(testUser(domain.RoleAdmin), time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"no credential", "/video", "", http.StatusUnauthorized},
		{"garbage token", "/video", "Bearer junk", http.StatusUnauthorized},
		{"expired token", "/video", "Bearer " + expired, http.StatusUnauthorized},
		{"student on elevated route", "/video", "Bearer " + student, http.StatusForbidden},
		{"faculty on elevated route", "/video", "Bearer " + faculty, http.StatusOK},
		{"faculty via query", "/video?token=" + faculty, "", http.StatusOK},
		{"student via query", "/video?token=" + student, "", http.StatusForbidden},
		{"student on authenticated route", "/me", "Bearer " + student, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthMiddlewareRejectsRevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisRevocationStore(client)
	tm := NewTokenManager(testSecret, time.Hour)
	app := newTestApp(NewAuthMiddleware(tm, store, zap.NewNop()))

	raw, claims := token(t, tm, domain.RoleAdmin, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, store.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

	req = httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
