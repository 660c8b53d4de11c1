package handlers

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nannyhub/internal/app"
	"nannyhub/internal/handlers/middleware"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.TraceID())
	router.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{},
	)))

	api := router.Group("/api")
	HealthHandler(api, app.Config, app.Database)

	protected := api.Group("", app.Middleware.RequireAuth())
	NewBookingHandler(*app, protected).Register()
	NewAppointmentHandler(*app, protected).Register()
	NewNannyHandler(*app, protected).Register()
	NewAdminHandler(*app, protected).Register()

	return nil
}

func newHandler(app app.App, router fiber.Router, file string) Handler {
	return Handler{
		log:        logger.New("handlers").File(file),
		router:     router,
		middleware: app.Middleware,
	}
}
