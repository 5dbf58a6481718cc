package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/models"
	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	cookies     CookieSettings
	accessTTL   time.Duration
}

func NewAuthHandler(authService *services.AuthService, cookies CookieSettings, accessTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, accessTTL: accessTTL}
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid email address")
	}
	if req.Password != req.PasswordConfirm {
		return errorJSON(c, fiber.StatusBadRequest, "Passwords do not match")
	}

	res, err := h.authService.SignUp(c.UserContext(), services.SignUpInput{
		Email:    email,
		Password: req.Password,
		FullName: req.FullName,
	}, clientInfo(c))
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.setRefresh(c, res.RefreshToken, fiber.CookieSameSiteLaxMode)
	return c.Status(fiber.StatusCreated).JSON(h.authResponse(res))
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid email address")
	}

	res, err := h.authService.SignIn(c.UserContext(), email, req.Password, clientInfo(c))
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.setRefresh(c, res.RefreshToken, fiber.CookieSameSiteLaxMode)
	return c.JSON(h.authResponse(res))
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(RefreshCookieName)
	if token == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "Refresh token not found")
	}

	pair, err := h.authService.Refresh(c.UserContext(), token, clientInfo(c))
	if err != nil {
		return respondError(c, err)
	}

	h.cookies.setRefresh(c, pair.RefreshToken, fiber.CookieSameSiteLaxMode)
	return c.JSON(h.tokenResponse(pair.AccessToken))
}

// SignOut always clears the cookie; unknown tokens are not an error.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	if token := c.Cookies(RefreshCookieName); token != "" {
		if err := h.authService.SignOut(c.UserContext(), token); err != nil {
			return err
		}
	}

	h.cookies.clearRefresh(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) SignOutEverywhere(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	n, err := h.authService.SignOutEverywhere(c.UserContext(), userID)
	if err != nil {
		return err
	}

	h.cookies.clearRefresh(c)
	return c.JSON(dto.SignOutAllResponse{Revoked: n})
}

func (h *AuthHandler) Sessions(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	sessions, err := h.authService.ListSessions(c.UserContext(), userID)
	if err != nil {
		return err
	}

	resp := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, dto.SessionResponse{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
			IPAddress: s.IPAddress,
			UserAgent: s.UserAgent,
		})
	}
	return c.JSON(resp)
}

func (h *AuthHandler) tokenResponse(accessToken string) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(h.accessTTL.Seconds()),
	}
}

func (h *AuthHandler) authResponse(res *services.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		TokenResponse: h.tokenResponse(res.AccessToken),
		User:          toUserResponse(res.User),
	}
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
	}
}
