package handlers

import (
	"github.com/gofiber/fiber/v2"

	"nannyhub/internal/app"
	bookingController "nannyhub/internal/controllers/bookings"
)

type BookingHandler struct {
	Handler
	bookingController bookingController.BookingControllerInterface
}

func NewBookingHandler(app app.App, router fiber.Router) *BookingHandler {
	return &BookingHandler{
		Handler:           newHandler(app, router, "booking_handler"),
		bookingController: app.Controllers.Booking,
	}
}

func (h *BookingHandler) Register() {
	bookings := h.router.Group("/bookings")
	bookings.Get("/", h.list)
	bookings.Post("/", h.create)
	bookings.Get("/:id", h.get)
	bookings.Patch("/:id", h.update)
	bookings.Delete("/:id", h.delete)
}

func (h *BookingHandler) list(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}

	page, err := h.bookingController.List(c.UserContext(), actor, listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *BookingHandler) create(c *fiber.Ctx) error {
	log := h.log.Function("create")

	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}

	var req bookingController.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err)
		return badRequest(c, "Invalid request body")
	}

	booking, err := h.bookingController.Create(c.UserContext(), actor, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *BookingHandler) get(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid booking id")
	}

	booking, err := h.bookingController.Get(c.UserContext(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) update(c *fiber.Ctx) error {
	log := h.log.Function("update")

	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid booking id")
	}

	var req bookingController.UpdateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn("Invalid request body", "error", err, "bookingID", id)
		return badRequest(c, "Invalid request body")
	}

	booking, err := h.bookingController.Update(c.UserContext(), actor, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(booking)
}

func (h *BookingHandler) delete(c *fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid booking id")
	}

	if err := h.bookingController.Delete(c.UserContext(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
