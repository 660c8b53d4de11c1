package repositories

import (
	"nannyhub/internal/database"
)

type Repository struct {
	User        UserRepository
	Nanny       NannyRepository
	Booking     BookingRepository
	Appointment AppointmentRepository
	Reference   ReferenceRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:        NewUserRepository(db), // User repo needs cache for caching
		Nanny:       NewNannyRepository(),
		Booking:     NewBookingRepository(),
		Appointment: NewAppointmentRepository(),
		Reference:   NewReferenceRepository(),
	}
}
