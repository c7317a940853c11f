package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAccountServiceURL is used when ACCOUNT_API_URL is unset.
const DefaultAccountServiceURL = "http://localhost:5000/api"

// Config aggregates runtime configuration for the portal.
type Config struct {
	App            AppConfig
	Redis          RedisConfig
	Logger         LoggerConfig
	Session        SessionConfig
	AccountService AccountServiceConfig
	Recovery       RecoveryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	LoginURL              string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SessionConfig defines the browser session cookie.
type SessionConfig struct {
	Secret       string
	TTLMinutes   int
	CookieName   string
	CookieSecure bool
}

// AccountServiceConfig points at the account recovery backend.
// CallTimeout, when positive, takes precedence over TimeoutSeconds.
type AccountServiceConfig struct {
	BaseURL        string
	TimeoutSeconds int
	CallTimeout    time.Duration
}

// RecoveryConfig tunes the forgot-password workflow.
type RecoveryConfig struct {
	HandoffTTLMinutes  int
	FlashTTLMinutes    int
	SessionIdleMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "pronet-recovery-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			LoginURL:              getEnv("LOGIN_URL", "/login"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			Secret:       getEnv("SESSION_SECRET", "dev-secret"),
			TTLMinutes:   getEnvAsInt("SESSION_TTL_MINUTES", 60),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "pronet_session"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		},
		AccountService: AccountServiceConfig{
			BaseURL:        os.Getenv("ACCOUNT_API_URL"),
			TimeoutSeconds: getEnvAsInt("ACCOUNT_SERVICE_TIMEOUT_SECONDS", 10),
		},
		Recovery: RecoveryConfig{
			HandoffTTLMinutes:  getEnvAsInt("RECOVERY_HANDOFF_TTL_MINUTES", 15),
			FlashTTLMinutes:    getEnvAsInt("RECOVERY_FLASH_TTL_MINUTES", 5),
			SessionIdleMinutes: getEnvAsInt("RECOVERY_SESSION_IDLE_MINUTES", 30),
		},
	}

	if cfg.App.Env == "production" && cfg.Session.Secret == "dev-secret" {
		return nil, fmt.Errorf("SESSION_SECRET must be set in production")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL returns the session lifetime.
func (s SessionConfig) TTL() time.Duration {
	return minutes(s.TTLMinutes, 60)
}

// BaseURLOrDefault returns the configured base URL or DefaultAccountServiceURL.
func (a AccountServiceConfig) BaseURLOrDefault() string {
	if url := strings.TrimSpace(a.BaseURL); url != "" {
		return url
	}
	return DefaultAccountServiceURL
}

// Timeout returns the per-call timeout; zero disables it.
func (a AccountServiceConfig) Timeout() time.Duration {
	if a.CallTimeout > 0 {
		return a.CallTimeout
	}
	if a.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (r RecoveryConfig) HandoffTTL() time.Duration { return minutes(r.HandoffTTLMinutes, 15) }

func (r RecoveryConfig) FlashTTL() time.Duration { return minutes(r.FlashTTLMinutes, 5) }

// SessionIdle returns the idle window after which a session's workflow is dropped.
func (r RecoveryConfig) SessionIdle() time.Duration {
	if r.SessionIdleMinutes <= 0 {
		return 0
	}
	return time.Duration(r.SessionIdleMinutes) * time.Minute
}

func minutes(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
