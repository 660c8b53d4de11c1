package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"nannyhub/config"
	"nannyhub/internal/database"
)

const healthTimeout = 2 * time.Second

func HealthHandler(router fiber.Router, config config.Config, db database.DB) {
	router.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "degraded",
				"version": config.GeneralVersion,
				"service": "nannyhub_api",
			})
		}

		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": config.GeneralVersion,
			"service": "nannyhub_api",
		})
	})
}
