package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-32-chars!"

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", JWTProtected(testSecret), func(c *fiber.Ctx) error {
		id, err := GetUserID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})
	return app
}

func get(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestJWTProtected(t *testing.T) {
	t.Parallel()

	app := newProtectedApp()
	userID := uuid.New()

	valid, err := security.NewTokenCodec(testSecret, time.Minute).IssueAccessToken(userID, "a@x.com")
	require.NoError(t, err)
	resp := get(t, app, valid)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	otherKey, err := security.NewTokenCodec("another-secret-another-secret-00", time.Minute).IssueAccessToken(userID, "a@x.com")
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "not-a-uuid",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":   "",
		"garbage":   "abc.def.ghi",
		"wrong key": otherKey,
		"bad sub":   noSubject,
	} {
		resp := get(t, app, token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
	}
}
