package usercontext

import "github.com/gofiber/fiber/v2"

// HeaderUserID is the simulated authentication header. Upstream identity
// infrastructure is expected to replace this with a verified principal.
const HeaderUserID = "X-Usuario-Id"

// ContextKey is the Locals key the middleware stores the context under.
const ContextKey = "USER_CONTEXT"

// UserContext represents the authenticated identity of a request.
type UserContext struct {
	UserID          string `json:"user_id"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// GetUserContext retrieves the user context from fiber context.
// Returns an anonymous context if none is set.
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsAuthenticated: false}
}

// GetUserID returns the current user's ID, or empty string if anonymous.
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}

// IsAuthenticated checks if the request carries a user identity.
func IsAuthenticated(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAuthenticated
}
