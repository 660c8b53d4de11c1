package middleware

import (
	"github.com/gofiber/fiber/v2"

	"nannyhub/internal/models"
	"nannyhub/internal/types"
)

// RequireAdmin lets through only administrators, who may act on any booking
// or appointment and run background jobs by hand. It must sit behind
// RequireAuth, which resolves the actor.
func (m *Middleware) RequireAdmin() fiber.Handler {
	log := m.log.Function("RequireAdmin")

	return func(c *fiber.Ctx) error {
		actor, ok := GetActor(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"field": "general",
				"kind":  types.KindUnauthorized,
				"error": "Sign in to continue",
			})
		}

		if actor.Role != models.RoleAdmin {
			log.TraceFromContext(c.UserContext()).
				Info("admin route refused", "userID", actor.UserID, "role", actor.Role, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"field": "general",
				"kind":  types.KindUnauthorized,
				"error": "Only administrators can do that",
			})
		}

		return c.Next()
	}
}
