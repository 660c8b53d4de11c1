package repositories

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	. "nannyhub/internal/models"
)

var bookingAssociations = []string{"Children", "Qualities", "Courses", "Careers"}

type BookingRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Booking, error)
	LockAppointments(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID) ([]Appointment, error)
	Create(ctx context.Context, tx *gorm.DB, booking *Booking) error
	UpdateDetails(ctx context.Context, tx *gorm.DB, booking *Booking) error
	ReplaceAppointments(ctx context.Context, tx *gorm.DB, booking *Booking, appointments []Appointment) error
	ReplaceAddress(ctx context.Context, tx *gorm.DB, booking *Booking, address *Address) error
	Delete(ctx context.Context, tx *gorm.DB, booking *Booking) error
}

type bookingRepository struct {
	log logger.Logger
}

func NewBookingRepository() BookingRepository {
	return &bookingRepository{
		log: logger.New("bookingRepository"),
	}
}

// GetByID loads the booking with its appointments, address, children and wish-list.
func (r *bookingRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Booking, error) {
	log := r.log.Function("GetByID")

	booking, err := gorm.G[Booking](tx).
		Preload("Appointments", func(db gorm.PreloadBuilder) error {
			db.Order("start_at ASC")
			return nil
		}).
		Preload("Address", nil).
		Preload("Children", nil).
		Preload("Qualities", nil).
		Preload("Courses", nil).
		Preload("Careers", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to get booking", translate(err), "bookingID", id)
	}

	return &booking, nil
}

// LockAppointments reads the booking's appointments with row locks held until
// tx ends, so an assignment cannot land between a check and a rewrite.
func (r *bookingRepository) LockAppointments(
	ctx context.Context,
	tx *gorm.DB,
	bookingID uuid.UUID,
) ([]Appointment, error) {
	log := r.log.Function("LockAppointments")

	appointments, err := gorm.G[Appointment](tx, clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ?", bookingID).
		Order("start_at ASC").
		Find(ctx)
	if err != nil {
		return nil, log.Err("failed to lock booking appointments", err, "bookingID", bookingID)
	}

	return appointments, nil
}

// Create inserts the booking with its appointments, address and links. Linked
// rows must already exist.
func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(booking).Error; err != nil {
		return log.Err("failed to create booking", translate(err), "tutorID", booking.TutorID)
	}

	log.Info("Booking created", "bookingID", booking.ID, "appointments", len(booking.Appointments))
	return nil
}

// UpdateDetails writes the description and recurrence flag and replaces the
// children and wish-list links with the ones on booking.
func (r *bookingRepository) UpdateDetails(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	log := r.log.Function("UpdateDetails")
	db := tx.WithContext(ctx)

	err := db.Model(booking).
		Omit(clause.Associations).
		Updates(map[string]any{"description": booking.Description, "recurrent": booking.Recurrent}).Error
	if err != nil {
		return log.Err("failed to update booking", err, "bookingID", booking.ID)
	}

	links := map[string]any{
		"Children":  booking.Children,
		"Qualities": booking.Qualities,
		"Courses":   booking.Courses,
		"Careers":   booking.Careers,
	}
	for _, association := range bookingAssociations {
		if err := db.Model(booking).Association(association).Replace(links[association]); err != nil {
			return log.Err("failed to replace booking links", err,
				"bookingID", booking.ID, "association", association)
		}
	}

	return nil
}

// ReplaceAppointments drops the booking's appointments and inserts the given ones.
func (r *bookingRepository) ReplaceAppointments(
	ctx context.Context,
	tx *gorm.DB,
	booking *Booking,
	appointments []Appointment,
) error {
	log := r.log.Function("ReplaceAppointments")
	db := tx.WithContext(ctx)

	if err := db.Where("booking_id = ?", booking.ID).Delete(&Appointment{}).Error; err != nil {
		return log.Err("failed to delete appointments", err, "bookingID", booking.ID)
	}

	for i := range appointments {
		appointments[i].ID = uuid.Nil
		appointments[i].BookingID = booking.ID
	}
	if err := db.Omit(clause.Associations).Create(&appointments).Error; err != nil {
		return log.Err("failed to create appointments", translate(err), "bookingID", booking.ID)
	}

	booking.Appointments = appointments
	return nil
}

// ReplaceAddress swaps the booking's address. A nil address only removes it.
func (r *bookingRepository) ReplaceAddress(
	ctx context.Context,
	tx *gorm.DB,
	booking *Booking,
	address *Address,
) error {
	log := r.log.Function("ReplaceAddress")
	db := tx.WithContext(ctx)

	if err := deleteOwnedAddress(db, booking.ID, "bookings"); err != nil {
		return log.Err("failed to delete address", err, "bookingID", booking.ID)
	}

	booking.Address = nil
	if address == nil {
		return nil
	}

	address.ID = uuid.Nil
	address.OwnerID = booking.ID
	address.OwnerType = "bookings"
	if err := db.Create(address).Error; err != nil {
		return log.Err("failed to create address", err, "bookingID", booking.ID)
	}

	booking.Address = address
	return nil
}

// Delete removes the booking with its appointments, address and links.
func (r *bookingRepository) Delete(ctx context.Context, tx *gorm.DB, booking *Booking) error {
	log := r.log.Function("Delete")
	db := tx.WithContext(ctx)

	if err := db.Where("booking_id = ?", booking.ID).Delete(&Appointment{}).Error; err != nil {
		return log.Err("failed to delete appointments", err, "bookingID", booking.ID)
	}

	if err := deleteOwnedAddress(db, booking.ID, "bookings"); err != nil {
		return log.Err("failed to delete address", err, "bookingID", booking.ID)
	}

	for _, association := range bookingAssociations {
		if err := db.Model(booking).Association(association).Clear(); err != nil {
			return log.Err("failed to clear booking links", err,
				"bookingID", booking.ID, "association", association)
		}
	}

	if err := db.Delete(&Booking{}, "id = ?", booking.ID).Error; err != nil {
		return log.Err("failed to delete booking", err, "bookingID", booking.ID)
	}

	log.Info("Booking deleted", "bookingID", booking.ID)
	return nil
}

func deleteOwnedAddress(db *gorm.DB, ownerID uuid.UUID, ownerType string) error {
	return db.Unscoped().
		Where("owner_id = ? AND owner_type = ?", ownerID, ownerType).
		Delete(&Address{}).Error
}
