package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"nannyhub/internal/app"
	"nannyhub/internal/controllers/listings"
	nannyController "nannyhub/internal/controllers/nannies"
	"nannyhub/internal/models"
	"nannyhub/internal/types"
)

type NannyHandler struct {
	Handler
	nannyController nannyController.NannyControllerInterface
}

func NewNannyHandler(app app.App, router fiber.Router) *NannyHandler {
	return &NannyHandler{
		Handler:         newHandler(app, router, "nanny_handler"),
		nannyController: app.Controllers.Nanny,
	}
}

func (h *NannyHandler) Register() {
	nannies := h.router.Group("/nannies")
	nannies.Get("/", h.list)
	nannies.Get("/:id", h.get)
	nannies.Get("/:id/availability", h.availability)
}

func (h *NannyHandler) list(c *fiber.Ctx) error {
	page, err := h.nannyController.List(c.UserContext(), listParams(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

func (h *NannyHandler) get(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid nanny id")
	}

	nanny, err := h.nannyController.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(nanny)
}

func (h *NannyHandler) availability(c *fiber.Ctx) error {
	id, ok := uuidParam(c, "id")
	if !ok {
		return badRequest(c, "Invalid nanny id")
	}

	start, okStart := listings.ParseTime(c.Query("start"))
	end, okEnd := listings.ParseTime(c.Query("end"))
	if !okStart || !okEnd {
		return respondError(c, fmt.Errorf("%w: start and end must be RFC 3339 times or dates", types.ErrInvalidInterval))
	}

	interval, err := models.NewInterval(start, end)
	if err != nil {
		return respondError(c, err)
	}

	response, err := h.nannyController.Availability(c.UserContext(), id, interval)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(response)
}
