package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

const (
	bodyKey  = "validated"
	queryKey = "queryParams"
)

// validate is shared; validator caches struct metadata and is safe for concurrent use.
var validate = validator.New()

// ValidationError lists the failing field tags of a request.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidateBody parses the body into a fresh T per request and validates it.
// Handlers read the result with Validated[T].
func ValidateBody[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := check(req, "Validation failed"); err != nil {
			return err
		}
		c.Locals(bodyKey, req)
		return c.Next()
	}
}

// ValidateQuery parses the query string into a fresh T per request and validates it.
func ValidateQuery[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := new(T)
		if err := c.QueryParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
		}
		if err := check(req, "Invalid query parameters"); err != nil {
			return err
		}
		c.Locals(queryKey, req)
		return c.Next()
	}
}

// Validated returns the body stored by ValidateBody[T].
func Validated[T any](c *fiber.Ctx) *T {
	v, _ := c.Locals(bodyKey).(*T)
	return v
}

// Query returns the query parameters stored by ValidateQuery[T].
func Query[T any](c *fiber.Ctx) *T {
	v, _ := c.Locals(queryKey).(*T)
	return v
}

func check(s any, message string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Message: message, Fields: fields}
}
