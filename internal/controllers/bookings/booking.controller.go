package bookingController

import (
	"context"
	"fmt"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"nannyhub/internal/controllers/listings"
	"nannyhub/internal/database"
	. "nannyhub/internal/models"
	"nannyhub/internal/policy"
	"nannyhub/internal/repositories"
	"nannyhub/internal/services"
	"nannyhub/internal/types"
	"nannyhub/pkg/query"
)

type AppointmentRequest struct {
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Notes      string `json:"notes"`
}

type CreateBookingRequest struct {
	// TutorID is only read for admins booking on a tutor's behalf.
	TutorID      *uuid.UUID           `json:"tutorId,omitempty"`
	Description  string               `json:"description"`
	Recurrent    bool                 `json:"recurrent"`
	Appointments []AppointmentRequest `json:"appointments"`
	ChildIDs     []uuid.UUID          `json:"childIds"`
	QualityIDs   []uuid.UUID          `json:"qualityIds"`
	CourseIDs    []uuid.UUID          `json:"courseIds"`
	CareerIDs    []uuid.UUID          `json:"careerIds"`
	Address      *AddressRequest      `json:"address,omitempty"`
}

// UpdateBookingRequest leaves nil fields untouched.
type UpdateBookingRequest struct {
	Description  *string               `json:"description,omitempty"`
	Recurrent    *bool                 `json:"recurrent,omitempty"`
	Appointments *[]AppointmentRequest `json:"appointments,omitempty"`
	ChildIDs     *[]uuid.UUID          `json:"childIds,omitempty"`
	QualityIDs   *[]uuid.UUID          `json:"qualityIds,omitempty"`
	CourseIDs    *[]uuid.UUID          `json:"courseIds,omitempty"`
	CareerIDs    *[]uuid.UUID          `json:"careerIds,omitempty"`
	Address      *AddressRequest       `json:"address,omitempty"`
}

type BookingControllerInterface interface {
	Create(ctx context.Context, actor policy.Actor, request *CreateBookingRequest) (*Booking, error)
	Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Booking, error)
	Update(ctx context.Context, actor policy.Actor, id uuid.UUID, request *UpdateBookingRequest) (*Booking, error)
	Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error
	List(ctx context.Context, actor policy.Actor, params query.Params) (*query.Page[Booking], error)
}

type BookingController struct {
	bookingRepo        repositories.BookingRepository
	referenceRepo      repositories.ReferenceRepository
	userRepo           repositories.UserRepository
	transactionService *services.TransactionService
	listings           listings.Listings
	db                 database.DB
	log                logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	listings listings.Listings,
	db database.DB,
) BookingControllerInterface {
	return &BookingController{
		bookingRepo:        repos.Booking,
		referenceRepo:      repos.Reference,
		userRepo:           repos.User,
		transactionService: services.Transaction,
		listings:           listings,
		db:                 db,
		log:                logger.New("bookingController"),
	}
}

func (c *BookingController) Create(
	ctx context.Context,
	actor policy.Actor,
	request *CreateBookingRequest,
) (*Booking, error) {
	log := c.log.Function("Create")

	tutorID, err := c.resolveTutor(ctx, actor, request.TutorID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ManageBooking, policy.Subject{TutorID: tutorID}); err != nil {
		return nil, err
	}

	if err := ValidateAppointmentCount(request.Recurrent, len(request.Appointments)); err != nil {
		return nil, err
	}
	appointments, err := buildAppointments(request.Appointments)
	if err != nil {
		return nil, err
	}

	booking := &Booking{
		TutorID:      tutorID,
		Description:  request.Description,
		Recurrent:    request.Recurrent,
		Appointments: appointments,
		Address:      buildAddress(request.Address),
	}

	err = c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := c.resolveLinks(ctx, tx, booking, links{
			children:  &request.ChildIDs,
			qualities: &request.QualityIDs,
			courses:   &request.CourseIDs,
			careers:   &request.CareerIDs,
		}); err != nil {
			return err
		}
		return c.bookingRepo.Create(ctx, tx, booking)
	})
	if err != nil {
		return nil, log.Err("failed to create booking", err, "tutorID", tutorID)
	}

	return c.bookingRepo.GetByID(ctx, c.db.SQL, booking.ID)
}

func (c *BookingController) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*Booking, error) {
	booking, err := c.bookingRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(actor, policy.View, policy.BookingSubject(booking)); err != nil {
		return nil, err
	}
	return booking, nil
}

func (c *BookingController) Update(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
	request *UpdateBookingRequest,
) (*Booking, error) {
	log := c.log.Function("Update")

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		booking, err := c.mutableBooking(ctx, tx, actor, id)
		if err != nil {
			return err
		}

		if request.Description != nil {
			booking.Description = *request.Description
		}
		if request.Recurrent != nil {
			booking.Recurrent = *request.Recurrent
		}

		count := len(booking.Appointments)
		if request.Appointments != nil {
			count = len(*request.Appointments)
		}
		if err := ValidateAppointmentCount(booking.Recurrent, count); err != nil {
			return err
		}

		if err := c.resolveLinks(ctx, tx, booking, links{
			children:  request.ChildIDs,
			qualities: request.QualityIDs,
			courses:   request.CourseIDs,
			careers:   request.CareerIDs,
		}); err != nil {
			return err
		}
		if err := c.bookingRepo.UpdateDetails(ctx, tx, booking); err != nil {
			return err
		}

		if request.Appointments != nil {
			appointments, err := buildAppointments(*request.Appointments)
			if err != nil {
				return err
			}
			if err := c.bookingRepo.ReplaceAppointments(ctx, tx, booking, appointments); err != nil {
				return err
			}
		}

		if request.Address != nil {
			return c.bookingRepo.ReplaceAddress(ctx, tx, booking, buildAddress(request.Address))
		}
		return nil
	})
	if err != nil {
		return nil, log.Err("failed to update booking", err, "bookingID", id)
	}

	return c.bookingRepo.GetByID(ctx, c.db.SQL, id)
}

func (c *BookingController) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	log := c.log.Function("Delete")

	err := c.transactionService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		booking, err := c.mutableBooking(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		return c.bookingRepo.Delete(ctx, tx, booking)
	})
	if err != nil {
		return log.Err("failed to delete booking", err, "bookingID", id)
	}

	return nil
}

func (c *BookingController) List(
	ctx context.Context,
	actor policy.Actor,
	params query.Params,
) (*query.Page[Booking], error) {
	log := c.log.Function("List")

	base := c.db.SQL.Model(&Booking{}).Scopes(listings.VisibleBookings(actor))
	page, err := c.listings.Bookings.Paginate(ctx, base, params, query.WithPreload("Appointments"))
	if err != nil {
		return nil, log.Err("failed to list bookings", err)
	}

	return page, nil
}

// mutableBooking loads a booking the actor manages and fails unless every
// appointment is still an unassigned draft. The appointments stay locked for
// the rest of tx.
func (c *BookingController) mutableBooking(
	ctx context.Context,
	tx *gorm.DB,
	actor policy.Actor,
	id uuid.UUID,
) (*Booking, error) {
	booking, err := c.bookingRepo.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := policy.Authorize(actor, policy.ManageBooking, policy.BookingSubject(booking)); err != nil {
		return nil, err
	}

	booking.Appointments, err = c.bookingRepo.LockAppointments(ctx, tx, booking.ID)
	if err != nil {
		return nil, err
	}
	if !booking.Mutable() {
		return nil, fmt.Errorf("%w: booking %s has appointments in progress", types.ErrInvalidTransition, id)
	}
	return booking, nil
}

func (c *BookingController) resolveTutor(
	ctx context.Context,
	actor policy.Actor,
	requested *uuid.UUID,
) (uuid.UUID, error) {
	if actor.Role != RoleAdmin {
		return actor.UserID, nil
	}

	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: tutorId is required when booking for a tutor", types.ErrNotFound)
	}

	tutor, err := c.userRepo.GetByID(ctx, c.db.SQL, *requested)
	if err != nil {
		return uuid.Nil, err
	}
	if tutor.Role != RoleTutor {
		return uuid.Nil, fmt.Errorf("%w: user %s is not a tutor", types.ErrNotFound, tutor.ID)
	}
	return tutor.ID, nil
}

// links holds requested link ids. A nil field keeps the booking's current links.
type links struct {
	children  *[]uuid.UUID
	qualities *[]uuid.UUID
	courses   *[]uuid.UUID
	careers   *[]uuid.UUID
}

func (c *BookingController) resolveLinks(ctx context.Context, tx *gorm.DB, booking *Booking, l links) error {
	if l.children != nil {
		children, err := c.referenceRepo.Children(ctx, tx, booking.TutorID, *l.children)
		if err != nil {
			return err
		}
		booking.Children = children
	}
	if l.qualities != nil {
		qualities, err := c.referenceRepo.Qualities(ctx, tx, *l.qualities)
		if err != nil {
			return err
		}
		booking.Qualities = qualities
	}
	if l.courses != nil {
		courses, err := c.referenceRepo.Courses(ctx, tx, *l.courses)
		if err != nil {
			return err
		}
		booking.Courses = courses
	}
	if l.careers != nil {
		careers, err := c.referenceRepo.Careers(ctx, tx, *l.careers)
		if err != nil {
			return err
		}
		booking.Careers = careers
	}
	return nil
}

func buildAppointments(requests []AppointmentRequest) ([]Appointment, error) {
	appointments := make([]Appointment, 0, len(requests))
	for i, request := range requests {
		interval, err := NewInterval(request.StartAt.UTC(), request.EndAt.UTC())
		if err != nil {
			return nil, fmt.Errorf("appointment %d: %w", i+1, err)
		}
		appointments = append(appointments, Appointment{
			StartAt: interval.Start,
			EndAt:   interval.End,
		})
	}
	return appointments, nil
}

func buildAddress(request *AddressRequest) *Address {
	if request == nil {
		return nil
	}
	return &Address{
		Street:     request.Street,
		City:       request.City,
		PostalCode: request.PostalCode,
		Notes:      request.Notes,
	}
}
