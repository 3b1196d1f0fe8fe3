package api

import (
	"errors"
	"time"

	"github.com/bilgisen/schoolpress/internal/auth"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// signInStateCookie is set by the provider's sign-in widget to remember the
// last chosen account.
const signInStateCookie = "g_state"

type loginRequest struct {
	Credential string `json:"credential" form:"credential" validate:"required,max=8192"`
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	req := middleware.Validated[loginRequest](c)
	ctx := c.UserContext()

	session, err := h.gate.Login(ctx, req.Credential)
	if err != nil {
		return err
	}

	if prior := middleware.SessionFrom(c); prior != nil && prior.ID != session.ID {
		if err := h.gate.Logout(ctx, prior.ID); err != nil {
			logger.Get().Warn().Err(err).Str("email", prior.Email).Msg("Error dropping replaced session")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.config.SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  h.now().Add(h.config.SessionTTL),
		HTTPOnly: true,
		Secure:   h.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(session)
}

// Logout handles POST /api/v1/auth/logout. It always succeeds for the caller.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if session := middleware.SessionFrom(c); session != nil {
		if err := h.gate.Logout(c.UserContext(), session.ID); err != nil {
			return err
		}
	}
	h.forget(c)
	return c.JSON(fiber.Map{"status": "logged_out"})
}

// CurrentSession handles GET /api/v1/auth/session
func (h *Handlers) CurrentSession(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return auth.ErrNoSession
	}
	return c.JSON(session)
}

// RefreshSession handles POST /api/v1/auth/refresh
func (h *Handlers) RefreshSession(c *fiber.Ctx) error {
	session := middleware.SessionFrom(c)
	if session == nil {
		return auth.ErrNoSession
	}

	refreshed, err := h.gate.Refresh(c.UserContext(), session.ID)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) || errors.Is(err, auth.ErrNoSession) {
			h.forget(c)
		}
		return err
	}
	return c.JSON(refreshed)
}

// forget expires the session cookie and the sign-in widget state so the
// browser does not silently pick the account again.
func (h *Handlers) forget(c *fiber.Ctx) {
	for _, name := range []string{h.config.SessionCookie, signInStateCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HTTPOnly: name == h.config.SessionCookie,
			Secure:   h.config.IsProduction(),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
	c.Set("Clear-Site-Data", `"cookies"`)
}
