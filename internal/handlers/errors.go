package handlers

import (
	"fmt"
	"net/url"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"nannyhub/internal/handlers/middleware"
	"nannyhub/internal/policy"
	"nannyhub/internal/types"
	"nannyhub/pkg/query"
)

// ErrorResponse is the body of every 4xx/5xx answer produced from a domain
// error. Retryable marks lost races worth retrying with another nanny or slot.
type ErrorResponse struct {
	Field     string          `json:"field"`
	Message   string          `json:"message"`
	Kind      types.ErrorKind `json:"kind"`
	Retryable bool            `json:"retryable,omitempty"`
}

// kindMessages is what a user reads for each domain error kind. The wrapped
// error text stays in the logs.
var kindMessages = map[types.ErrorKind]string{
	types.KindNotFound:          "We couldn't find what you were looking for.",
	types.KindUnauthorized:      "You don't have access to do that.",
	types.KindAlreadyAssigned:   "This appointment already has a nanny. Please pick another appointment.",
	types.KindNoLongerAvailable: "That nanny is no longer free for this slot. Please pick another nanny or time.",
	types.KindInvalidInterval:   "Check the appointment times and how many appointments this booking has.",
	types.KindInvalidTransition: "This appointment can't do that in its current status.",
}

func respondError(c *fiber.Ctx, err error) error {
	log := logger.New("handlers").TraceFromContext(c.UserContext()).Function("respondError")

	kind := types.Kind(err)
	response := ErrorResponse{Field: "general", Message: kindMessages[kind], Kind: kind}

	status := fiber.StatusInternalServerError
	switch kind {
	case types.KindNotFound:
		status = fiber.StatusNotFound
	case types.KindUnauthorized:
		status = fiber.StatusForbidden
		if _, ok := middleware.GetActor(c); !ok {
			status = fiber.StatusUnauthorized
		}
	case types.KindAlreadyAssigned, types.KindNoLongerAvailable:
		status = fiber.StatusConflict
		response.Retryable = true
	case types.KindInvalidInterval:
		status = fiber.StatusUnprocessableEntity
		response.Field = "appointments"
	case types.KindInvalidTransition:
		status = fiber.StatusUnprocessableEntity
		response.Field = "status"
	default:
		log.Er("request failed", err, "path", c.Path(), "method", c.Method())
		response.Message = "Internal server error"
		return c.Status(status).JSON(response)
	}

	log.Info("request refused", "kind", kind, "error", err.Error(), "path", c.Path(), "method", c.Method())
	return c.Status(status).JSON(response)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

// actorOf is only reached behind RequireAuth; a missing actor still fails closed.
func actorOf(c *fiber.Ctx) (policy.Actor, error) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return policy.Actor{}, fmt.Errorf("%w: authentication required", types.ErrUnauthorized)
	}
	return actor, nil
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func listParams(c *fiber.Ctx) query.Params {
	values, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return query.Params{}
	}
	return query.ParseParams(values)
}
