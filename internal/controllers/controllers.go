package controllers

import (
	"nannyhub/config"
	"nannyhub/internal/controllers/listings"
	"nannyhub/internal/database"
	"nannyhub/internal/events"
	"nannyhub/internal/metrics"
	"nannyhub/internal/repositories"
	"nannyhub/internal/services"

	adminController "nannyhub/internal/controllers/admin"
	appointmentController "nannyhub/internal/controllers/appointments"
	bookingController "nannyhub/internal/controllers/bookings"
	nannyController "nannyhub/internal/controllers/nannies"
)

type Controllers struct {
	Booking     bookingController.BookingControllerInterface
	Appointment appointmentController.AppointmentControllerInterface
	Nanny       nannyController.NannyControllerInterface
	Admin       adminController.AdminControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	listings listings.Listings,
	eventBus events.Publisher,
	metrics *metrics.Metrics,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		Booking:     bookingController.New(repos, services, listings, db),
		Appointment: appointmentController.New(repos, services, listings, eventBus, metrics, config, db),
		Nanny:       nannyController.New(repos, services, listings, db),
		Admin:       adminController.New(services),
	}
}
