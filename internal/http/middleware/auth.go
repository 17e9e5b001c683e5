package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/identity"
	"docvault/internal/model"
)

// UserLocalKey is the fiber locals key holding the authenticated *model.User.
const UserLocalKey = "user"

// Auth resolves the X-CSRF-Token header into a user and stores it in locals.
// Failures are returned to the app's error handler, which renders the error envelope.
func Auth(resolver identity.UserResolver, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(identity.TokenHeader)
		if token == "" {
			return identity.ErrMissingToken
		}

		user, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidToken) {
				rid, _ := c.Locals(RequestIDLocalKey).(string)
				logger.ErrorContext(c.UserContext(), "identity_resolve_failed",
					"component", "auth", "request_id", rid, "error", err.Error())
			}
			return err
		}

		c.Locals(UserLocalKey, user)
		return c.Next()
	}
}

// UserFromCtx returns the user stored by Auth, or nil.
func UserFromCtx(c *fiber.Ctx) *model.User {
	u, _ := c.Locals(UserLocalKey).(*model.User)
	return u
}
