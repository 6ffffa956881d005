// middleware/auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the user identity and clan roles the Gateway
// resolved for this request. Downstream handlers trust the derived
// is_clan_admin boolean — role resolution itself lives in the auth service.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		rolesStr := c.Get("X-Clan-Roles")

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID required but missing on: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		var roles []string
		for _, r := range strings.Split(rolesStr, ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				roles = append(roles, r)
			}
		}

		isClanAdmin := false
		for _, r := range roles {
			if r == "admin" || r == "leader" {
				isClanAdmin = true
				break
			}
		}

		c.Locals("user_id", userID)
		c.Locals("clan_roles", roles)
		c.Locals("is_clan_admin", isClanAdmin)

		return c.Next()
	}
}

// RequireClanAdmin gates the review mutations on the boolean set above.
func RequireClanAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, _ := c.Locals("is_clan_admin").(bool); !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "clan admin role required",
			})
		}
		return c.Next()
	}
}
