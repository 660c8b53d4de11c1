package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nannyhub/internal/app"
	adminController "nannyhub/internal/controllers/admin"
)

type AdminHandler struct {
	Handler
	adminController adminController.AdminControllerInterface
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	return &AdminHandler{
		Handler:         newHandler(app, router, "admin_handler"),
		adminController: app.Controllers.Admin,
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin", h.middleware.RequireAdmin())
	admin.Post("/jobs/:name/run", h.runJob)
}

// runJob runs a scheduled job now and waits for it to finish.
func (h *AdminHandler) runJob(c *fiber.Ctx) error {
	log := h.log.Function("runJob")

	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}

	name := c.Params("name")
	if err := h.adminController.RunJob(c.UserContext(), actor, name); err != nil {
		return respondError(c, err)
	}

	log.Info("Job run on request", "job", name, "userID", actor.UserID)
	return c.JSON(fiber.Map{"job": name, "status": "completed"})
}
