package repositories

import (
	"context"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nannyhub/internal/lifecycle"
	. "nannyhub/internal/models"
)

const APPOINTMENT_BATCH_SIZE = 200

type AppointmentRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Appointment, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Appointment, error)
	Save(ctx context.Context, tx *gorm.DB, appointment *Appointment) error
	CompareAndSetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to lifecycle.Status) (bool, error)
	FindOpenInBatches(ctx context.Context, tx *gorm.DB, before time.Time, fn func([]Appointment) error) error
}

type appointmentRepository struct {
	log logger.Logger
}

func NewAppointmentRepository() AppointmentRepository {
	return &appointmentRepository{
		log: logger.New("appointmentRepository"),
	}
}

// GetByID loads the appointment with its booking.
func (r *appointmentRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Appointment, error) {
	log := r.log.Function("GetByID")

	appointment, err := gorm.G[Appointment](tx).
		Preload("Booking", nil).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to get appointment", translate(err), "appointmentID", id)
	}

	return &appointment, nil
}

// LockByID reads the appointment with a row lock held until tx ends. The
// booking is loaded without a lock.
func (r *appointmentRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Appointment, error) {
	log := r.log.Function("LockByID")

	appointment, err := gorm.G[Appointment](tx, clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(ctx)
	if err != nil {
		return nil, log.Err("failed to lock appointment", translate(err), "appointmentID", id)
	}

	booking, err := gorm.G[Booking](tx).Where("id = ?", appointment.BookingID).First(ctx)
	if err != nil {
		return nil, log.Err("failed to load appointment booking", translate(err), "appointmentID", id)
	}
	appointment.Booking = &booking

	return &appointment, nil
}

// Save writes the appointment columns. Associations are never touched.
func (r *appointmentRepository) Save(ctx context.Context, tx *gorm.DB, appointment *Appointment) error {
	log := r.log.Function("Save")

	if err := tx.WithContext(ctx).Omit(clause.Associations).Save(appointment).Error; err != nil {
		return log.Err("failed to save appointment", translate(err),
			"appointmentID", appointment.ID, "status", appointment.Status)
	}

	return nil
}

// CompareAndSetStatus moves the appointment from one status to another only
// when it still holds from. It reports whether a row changed.
func (r *appointmentRepository) CompareAndSetStatus(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
	from, to lifecycle.Status,
) (bool, error) {
	log := r.log.Function("CompareAndSetStatus")

	result := tx.WithContext(ctx).
		Session(&gorm.Session{SkipHooks: true}).
		Model(&Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return false, log.Err("failed to update appointment status", result.Error,
			"appointmentID", id, "from", from, "to", to)
	}

	return result.RowsAffected == 1, nil
}

// FindOpenInBatches walks non-terminal appointments that started before the
// given time, in primary key order.
func (r *appointmentRepository) FindOpenInBatches(
	ctx context.Context,
	tx *gorm.DB,
	before time.Time,
	fn func([]Appointment) error,
) error {
	log := r.log.Function("FindOpenInBatches")

	var batch []Appointment
	result := tx.WithContext(ctx).
		Where("status IN ? AND start_at <= ?", lifecycle.NonTerminal(), before).
		FindInBatches(&batch, APPOINTMENT_BATCH_SIZE, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		})
	if result.Error != nil {
		return log.Err("failed to scan open appointments", result.Error, "before", before)
	}

	return nil
}
