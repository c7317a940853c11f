package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"APP_ENV", "ACCOUNT_API_URL", "SESSION_SECRET", "REDIS_DB", "ACCOUNT_SERVICE_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "/login", cfg.App.LoginURL)
	assert.Equal(t, DefaultAccountServiceURL, cfg.AccountService.BaseURLOrDefault())
	assert.Equal(t, 10*time.Second, cfg.AccountService.Timeout())
	assert.Equal(t, 15*time.Minute, cfg.Recovery.HandoffTTL())
	assert.Equal(t, 5*time.Minute, cfg.Recovery.FlashTTL())
	assert.Equal(t, 30*time.Minute, cfg.Recovery.SessionIdle())
	assert.Equal(t, time.Hour, cfg.Session.TTL())
	assert.Equal(t, "pronet_session", cfg.Session.CookieName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCOUNT_API_URL", "https://accounts.internal/api")
	t.Setenv("ACCOUNT_SERVICE_TIMEOUT_SECONDS", "0")
	t.Setenv("RECOVERY_SESSION_IDLE_MINUTES", "0")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://accounts.internal/api", cfg.AccountService.BaseURLOrDefault())
	assert.Zero(t, cfg.AccountService.Timeout())
	assert.Zero(t, cfg.Recovery.SessionIdle())
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("bad redis db", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("REDIS_DB", "one")
		_, err := Load()
		assert.ErrorContains(t, err, "REDIS_DB")
	})

	t.Run("default secret in production", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("REDIS_DB", "")
		t.Setenv("APP_ENV", "production")
		t.Setenv("SESSION_SECRET", "")
		_, err := Load()
		assert.ErrorContains(t, err, "SESSION_SECRET")
	})
}

func TestBaseURLOrDefault_Blank(t *testing.T) {
	assert.Equal(t, DefaultAccountServiceURL, AccountServiceConfig{BaseURL: "   "}.BaseURLOrDefault())
}

func TestAccountServiceTimeout_SubSecondOverride(t *testing.T) {
	cfg := AccountServiceConfig{TimeoutSeconds: 10, CallTimeout: 400 * time.Millisecond}
	assert.Equal(t, 400*time.Millisecond, cfg.Timeout())

	cfg.CallTimeout = 0
	assert.Equal(t, 10*time.Second, cfg.Timeout())
}
