package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, cfg.LockoutWindow)
	assert.Equal(t, 10*time.Minute, cfg.OAuthStateTTL)
	assert.Equal(t, 90, cfg.AttemptRetentionDays)
	assert.Equal(t, 7, cfg.RefreshTokenRetentionDays)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.GoogleEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("LOCKOUT_THRESHOLD", "3")
	t.Setenv("LOCKOUT_WINDOW", "5m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.1")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.LockoutThreshold)
	assert.Equal(t, 5*time.Minute, cfg.LockoutWindow)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
	assert.True(t, cfg.GoogleEnabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing secret", Config{DatabaseURL: "postgres://x", LockoutThreshold: 5, SweepInterval: time.Hour}, "JWT_SECRET_KEY"},
		{"missing database", Config{JWTSecret: "s", LockoutThreshold: 5, SweepInterval: time.Hour}, "DATABASE_URL"},
		{"zero threshold", Config{JWTSecret: "s", DatabaseURL: "postgres://x", SweepInterval: time.Hour}, "LOCKOUT_THRESHOLD"},
		{"zero sweep interval", Config{JWTSecret: "s", DatabaseURL: "postgres://x", LockoutThreshold: 5}, "SWEEP_INTERVAL"},
		{"wildcard origin", Config{JWTSecret: "s", DatabaseURL: "postgres://x", LockoutThreshold: 5, SweepInterval: time.Hour, AllowedOrigins: []string{"*"}}, "ALLOWED_ORIGINS"},
		{"valid", Config{JWTSecret: "s", DatabaseURL: "postgres://x", LockoutThreshold: 5, SweepInterval: time.Hour}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
