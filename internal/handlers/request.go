package handlers

import (
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/ragadmin/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	RefreshCookieName = "refresh_token"
	AccessCookieName  = "access_token"
	refreshCookiePath = "/api/v1/auth"
)

// TrustProxies makes c.IP() read X-Forwarded-For, but only on requests
// whose socket address is in proxies (IPs or CIDRs). Other requests keep
// the socket address.
func TrustProxies(cfg fiber.Config, proxies []string) fiber.Config {
	cfg.ProxyHeader = fiber.HeaderXForwardedFor
	cfg.EnableTrustedProxyCheck = true
	cfg.TrustedProxies = proxies
	cfg.EnableIPValidation = true
	return cfg
}

func clientInfo(c *fiber.Ctx) services.ClientInfo {
	return services.ClientInfo{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// normalizeEmail returns the bare address, or false when s is not one.
func normalizeEmail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", false
	}
	return s, true
}

// CookieSettings controls the refresh cookie.
type CookieSettings struct {
	Secure bool
	MaxAge time.Duration
}

func (s CookieSettings) setRefresh(c *fiber.Ctx, value, sameSite string) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(s.MaxAge.Seconds()),
		Secure:   s.Secure,
		HTTPOnly: true,
		SameSite: sameSite,
	})
}

func (s CookieSettings) clearRefresh(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
