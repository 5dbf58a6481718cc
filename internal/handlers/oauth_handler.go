package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/oauthstate"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	oauthErrFailed        = "OAUTH_FAILED"
	oauthErrInvalidState  = "INVALID_STATE"
	accessHandoffLifetime = 60 * time.Second
)

// IdentityProvider runs the authorization-code flow with an external
// provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*services.GoogleIdentity, error)
}

type OAuthHandler struct {
	oauthService *services.OAuthService
	provider     IdentityProvider
	guard        *oauthstate.Guard
	cookies      CookieSettings
	frontendURL  string
}

// NewOAuthHandler returns a handler that answers 503 when provider is nil.
func NewOAuthHandler(oauthService *services.OAuthService, provider IdentityProvider, guard *oauthstate.Guard, cookies CookieSettings, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		oauthService: oauthService,
		provider:     provider,
		guard:        guard,
		cookies:      cookies,
		frontendURL:  frontendURL,
	}
}

func (h *OAuthHandler) Authorize(c *fiber.Ctx) error {
	if h.provider == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Google sign-in is not configured")
	}

	state, err := h.guard.Generate(c.UserContext())
	if err != nil {
		return err
	}
	return c.Redirect(h.provider.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// Callback always redirects to the frontend; failures carry an error code
// in the query string.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	if h.provider == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Google sign-in is not configured")
	}

	if providerErr := c.Query("error"); providerErr != "" {
		return h.redirect(c, url.Values{"error": {oauthErrFailed}, "message": {providerErr}})
	}

	ctx := c.UserContext()
	if !h.guard.Validate(ctx, c.Query("state")) {
		return h.redirect(c, url.Values{"error": {oauthErrInvalidState}})
	}

	identity, err := h.provider.Exchange(ctx, c.Query("code"))
	if err != nil {
		slog.Warn("google code exchange failed", "error", err)
		return h.redirect(c, url.Values{"error": {oauthErrFailed}})
	}

	res, _, err := h.oauthService.GetOrCreateGoogleUser(ctx, *identity, clientInfo(c))
	if err != nil {
		var conflict *services.ConflictError
		if errors.As(err, &conflict) {
			return h.redirect(c, url.Values{"error": {conflict.Code}})
		}
		slog.Error("google sign in failed", "error", err)
		return h.redirect(c, url.Values{"error": {oauthErrFailed}})
	}

	h.cookies.setRefresh(c, res.RefreshToken, fiber.CookieSameSiteStrictMode)
	c.Cookie(&fiber.Cookie{
		Name:     AccessCookieName,
		Value:    res.AccessToken,
		Path:     "/",
		MaxAge:   int(accessHandoffLifetime.Seconds()),
		Secure:   h.cookies.Secure,
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return h.redirect(c, url.Values{"success": {"true"}})
}

func (h *OAuthHandler) redirect(c *fiber.Ctx, query url.Values) error {
	return c.Redirect(h.frontendURL+"/auth/callback?"+query.Encode(), fiber.StatusTemporaryRedirect)
}
