package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/config"
)

const sessionKey = "session_id"

// SessionMiddleware binds every request to a browser session, issuing a new
// signed cookie when the request carries none or an invalid one.
type SessionMiddleware struct {
	tokens *TokenManager
	cfg    config.SessionConfig
	logger *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, cfg config.SessionConfig, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, cfg: cfg, logger: logger}
}

// Handle resolves or creates the session.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	if raw := c.Cookies(m.cfg.CookieName); raw != "" {
		sessionID, err := m.tokens.Parse(raw)
		if err == nil {
			c.Locals(sessionKey, sessionID)
			return c.Next()
		}
		m.logger.Debug("discarding invalid session cookie", zap.Error(err))
	}

	sessionID, token, expiresAt, err := m.tokens.NewSession()
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Locals(sessionKey, sessionID)
	return c.Next()
}

// SessionFromContext retrieves the session id bound by Handle.
func SessionFromContext(c *fiber.Ctx) (string, bool) {
	sessionID, ok := c.Locals(sessionKey).(string)
	return sessionID, ok && sessionID != ""
}
