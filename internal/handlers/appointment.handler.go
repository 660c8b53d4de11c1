package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"nannyhub/internal/app"
	appointmentController "nannyhub/internal/controllers/appointments"
	"nannyhub/internal/models"
	"nannyhub/internal/policy"
)

type AppointmentHandler struct {
	Handler
	appointmentController appointmentController.AppointmentControllerInterface
}

func NewAppointmentHandler(app app.App, router fiber.Router) *AppointmentHandler {
	return &AppointmentHandler{
		Handler:               newHandler(app, router, "appointment_handler"),
		appointmentController: app.Controllers.Appointment,
	}
}

func (h *AppointmentHandler) Register() {
	appointments := h.router.Group("/appointments")
	appointments.Get("/", h.list)
	appointments.Get("/:id", h.get)
	appointments.Get("/:id/candidates", h.candidates)
	appointments.Post("/:id/nannies/:nannyId", h.assign)

	controller := h.appointmentController
	appointments.Post("/:id/accept", h.transition(controller.Accept))
	appointments.Post("/:id/reject", h.transition(controller.Reject))
	appointments.Post("/:id/unassign", h.transition(controller.Unassign))
	appointments.Post("/:id/cancel", h.transition(controller.Cancel))
}

func (h *AppointmentHandler) list(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.appointmentController.List(c.UserContext(), actor, listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *AppointmentHandler) get(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid appointment id")
	}

	appointment, err := h.appointmentController.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(appointment)
}

// candidates lists eligible nannies. With sample=top the answer is a random
// subset instead of a page.
func (h *AppointmentHandler) candidates(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid appointment id")
	}

	params := listParams(c)
	if c.Query("sample") == "top" {
		nannies, err := h.appointmentController.SampleCandidates(c.UserContext(), actor, id, params)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": nannies})
	}

	page, err := h.appointmentController.ListCandidates(c.UserContext(), actor, id, params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *AppointmentHandler) assign(c *fiber.Ctx) error {
	log := h.log.Function("assign")

	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid appointment id")
	}
	nannyID, ok := uuidParam(c, "nannyId")
	if !ok {
		return badRequest(c, "Invalid nanny id")
	}

	appointment, err := h.appointmentController.Assign(c.UserContext(), actor, id, nannyID)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Nanny assigned", "appointmentID", id, "nannyID", nannyID, "userID", actor.UserID)
	return c.JSON(appointment)
}

type transitionFunc func(ctx context.Context, actor policy.Actor, id uuid.UUID) (*models.Appointment, error)

func (h *AppointmentHandler) transition(action transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := actorOf(c)
		if err != nil {
			return respondError(c, err)
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return badRequest(c, "Invalid appointment id")
		}

		appointment, err := action(c.UserContext(), actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(appointment)
	}
}
