package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/gofiber/fiber/v2"
)

// SessionKey is the Locals key holding the request's *models.Session.
const SessionKey = "session"

// SessionGate is the part of the access gate the HTTP layer needs.
type SessionGate interface {
	RestoreSession(ctx context.Context, id string) (*models.Session, error)
	CanAccess(role, required models.Role) bool
	IsAdmin(s *models.Session) bool
}

// SessionConfig defines the config for the session middleware
type SessionConfig struct {
	// Skip defines a function to skip middleware.
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Gate restores sessions by id.
	// Required.
	Gate SessionGate

	// CookieName is the cookie carrying the session id.
	// Optional. Default: "schoolnewspaper_user"
	CookieName string

	// Header is checked for a "Bearer <id>" value when the cookie is absent.
	// Optional. Default: "Authorization"
	Header string
}

// DefaultSessionConfig is the default config
var DefaultSessionConfig = SessionConfig{
	CookieName: "schoolnewspaper_user",
	Header:     fiber.HeaderAuthorization,
}

// NewSession resolves the caller's session, if any, into c.Locals(SessionKey).
// Anonymous requests pass through; use RequireRole or AdminOnly to gate.
func NewSession(config SessionConfig) fiber.Handler {
	cfg := config
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionConfig.CookieName
	}
	if cfg.Header == "" {
		cfg.Header = DefaultSessionConfig.Header
	}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		id := c.Cookies(cfg.CookieName)
		if id == "" {
			id = strings.TrimPrefix(c.Get(cfg.Header), "Bearer ")
		}
		if id == "" {
			return c.Next()
		}

		session, err := cfg.Gate.RestoreSession(c.UserContext(), id)
		if err != nil {
			logger.Get().Error().
				Err(err).
				Str("path", c.Path()).
				Msg("Session restore failed")
			return c.Next()
		}
		if session != nil {
			c.Locals(SessionKey, session)
		}
		return c.Next()
	}
}

// SessionFrom returns the session resolved by NewSession, or nil.
func SessionFrom(c *fiber.Ctx) *models.Session {
	s, _ := c.Locals(SessionKey).(*models.Session)
	return s
}

// RequireRole lets through sessions whose role satisfies required.
func RequireRole(gate SessionGate, required models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFrom(c)
		if session == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Sign in required")
		}
		if !gate.CanAccess(session.Role, required) {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("email", session.Email).
				Str("role", string(session.Role)).
				Str("required", string(required)).
				Msg("Insufficient role")
			return fiber.NewError(fiber.StatusForbidden, fmt.Sprintf("%s access required", required))
		}
		return c.Next()
	}
}

// AdminOnly lets through admins, including the configured admin address.
func AdminOnly(gate SessionGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := SessionFrom(c)
		if session == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Sign in required")
		}
		if !gate.IsAdmin(session) {
			logger.Get().Warn().
				Str("method", c.Method()).
				Str("path", c.Path()).
				Str("ip", c.IP()).
				Str("email", session.Email).
				Msg("Unauthorized admin access attempt")
			return fiber.NewError(fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}
