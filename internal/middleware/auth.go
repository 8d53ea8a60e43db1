package middleware

import (
	"fmt"

	"github.com/cadencehq/ppmtrack/internal/services"
	"github.com/cadencehq/ppmtrack/internal/types"
	"github.com/gofiber/fiber/v2"
)

// roleCapabilities is the static role → capability table. An immutable
// mapping, not a hierarchy: a role grants exactly the listed capabilities.
var roleCapabilities = map[string][]string{
	"admin":   {"read", "write", "import", "admin"},
	"manager": {"read", "write", "import"},
	"viewer":  {"read"},
}

// rolesWith returns every role granting the capability, in registration
// order of the table.
func rolesWith(capability string) []string {
	var roles []string
	for _, role := range []string{"admin", "manager", "viewer"} {
		for _, granted := range roleCapabilities[role] {
			if granted == capability {
				roles = append(roles, role)
				break
			}
		}
	}
	return roles
}

// AuthRead validates that the request can read tracking data.
func AuthRead() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, "read", "tracking.authorization.read")
	}
}

// AuthWrite validates that the request can mutate tracking data.
func AuthWrite() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, "write", "tracking.authorization.write")
	}
}

// AuthImport validates that the request can run batch imports.
func AuthImport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, "import", "tracking.authorization.import")
	}
}

// AuthAdmin validates that the request has admin authorization.
func AuthAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, "admin", "tracking.authorization.admin")
	}
}

// authorize performs the authorization check against the session cookie.
func authorize(c *fiber.Ctx, capability, errorType string) error {
	session := c.Cookies("cookie_session")
	if session == "" {
		return &types.APIError{
			Code:    fiber.StatusForbidden,
			Message: "Authorizer cookie \"cookie_session\" not found",
			Type:    errorType,
		}
	}

	data, err := services.ValidateSession(session, rolesWith(capability))
	if err != nil {
		return &types.APIError{
			Code:    fiber.StatusForbidden,
			Message: fmt.Sprintf("Invalid session: %v", err),
			Type:    errorType,
		}
	}

	if user, ok := data["user"]; ok {
		c.Locals("user", user)
	}

	return c.Next()
}
