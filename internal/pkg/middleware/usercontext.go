package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/zabora/subscription-service/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the user context for every request from the
// simulated authentication header. Requests without the header proceed as
// anonymous; route-level guards decide whether that is acceptable.
func UserContextMiddleware(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Get(usercontext.HeaderUserID))
	if userID == "" {
		c.Locals(usercontext.ContextKey, usercontext.UserContext{IsAuthenticated: false})
		return c.Next()
	}
	c.Locals(usercontext.ContextKey, usercontext.UserContext{
		UserID:          userID,
		IsAuthenticated: true,
	})
	return c.Next()
}

// RequireUser rejects requests that did not identify a user.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !usercontext.IsAuthenticated(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error_code": "UNAUTHORIZED",
				"message":    "missing " + usercontext.HeaderUserID + " header",
				"path":       c.Path(),
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
			})
		}
		return c.Next()
	}
}
