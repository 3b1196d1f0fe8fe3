package middleware

import (
	"errors"
	"net/http"

	"github.com/bilgisen/schoolpress/internal/archive"
	"github.com/bilgisen/schoolpress/internal/auth"
	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every handler error as JSON with a status that
// matches its kind.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := fiber.Map{}

	var (
		cfgErr    *content.ConfigError
		fetchErr  *content.FetchError
		authErr   *auth.AuthError
		lookupErr *auth.LookupError
		valErr    *ValidationError
		fiberErr  *fiber.Error
	)
	switch {
	case errors.As(err, &cfgErr):
		code = fiber.StatusServiceUnavailable
		body["error"] = "The newspaper is not set up yet. Ask an administrator to configure the content source."
		body["missing"] = cfgErr.Missing
	case errors.As(err, &fetchErr):
		code = fiber.StatusBadGateway
		body["error"] = "Could not load content. Please try again."
	case errors.Is(err, content.ErrArticleNotFound), errors.Is(err, archive.ErrSnapshotNotFound):
		code = fiber.StatusNotFound
		body["error"] = err.Error()
	case errors.As(err, &authErr):
		code = fiber.StatusForbidden
		if errors.Is(err, auth.ErrInvalidCredential) {
			code = fiber.StatusUnauthorized
		}
		body["error"] = authErr.Reason
	case errors.As(err, &lookupErr):
		code = fiber.StatusBadGateway
		body["error"] = "Could not reach the staff directory. Please try again."
	case errors.Is(err, auth.ErrNoSession):
		code = fiber.StatusUnauthorized
		body["error"] = "Sign in required"
	case errors.As(err, &valErr):
		code = fiber.StatusUnprocessableEntity
		body["error"] = valErr.Message
		body["fields"] = valErr.Fields
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		body["error"] = fiberErr.Message
	default:
		body["error"] = http.StatusText(code)
	}

	event := logger.Get().Warn()
	if code >= fiber.StatusInternalServerError {
		event = logger.Get().Error()
	}
	event.
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	return c.Status(code).JSON(body)
}
