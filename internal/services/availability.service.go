package services

import (
	"context"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"nannyhub/internal/lifecycle"
	. "nannyhub/internal/models"
)

// AvailabilityService answers whether nannies are free for a half-open interval.
type AvailabilityService struct {
	log logger.Logger
}

func NewAvailabilityService() *AvailabilityService {
	return &AvailabilityService{
		log: logger.New("AvailabilityService"),
	}
}

// ConflictScope keeps the appointments that block interval: not cancelled and
// strictly overlapping. Touching intervals do not block.
func ConflictScope(interval Interval) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"appointments.status <> ? AND appointments.start_at < ? AND appointments.end_at > ?",
			lifecycle.Cancelled, interval.End, interval.Start,
		)
	}
}

// AvailableScope keeps the nannies with no conflicting appointment. The query
// it is applied to must select from nannies.
func AvailableScope(interval Interval) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		conflicts := db.Session(&gorm.Session{NewDB: true}).
			Model(&Appointment{}).
			Select("1").
			Where("appointments.nanny_id = nannies.id").
			Scopes(ConflictScope(interval))
		return db.Where("NOT EXISTS (?)", conflicts)
	}
}

// IsAvailable reports whether the nanny has no conflicting appointment.
// Appointments listed in exclude are ignored.
func (s *AvailabilityService) IsAvailable(
	ctx context.Context,
	tx *gorm.DB,
	nannyID uuid.UUID,
	interval Interval,
	exclude ...uuid.UUID,
) (bool, error) {
	log := s.log.Function("IsAvailable")

	if _, err := NewInterval(interval.Start, interval.End); err != nil {
		return false, err
	}

	query := tx.WithContext(ctx).
		Model(&Appointment{}).
		Where("appointments.nanny_id = ?", nannyID).
		Scopes(ConflictScope(interval))
	if len(exclude) > 0 {
		query = query.Where("appointments.id NOT IN ?", exclude)
	}

	var conflicts int64
	if err := query.Count(&conflicts).Error; err != nil {
		return false, log.Err("failed to check availability", err, "nannyID", nannyID)
	}

	return conflicts == 0, nil
}

// AvailableCandidates returns the ids of every nanny free for interval,
// regardless of the nanny's own availability flag.
func (s *AvailabilityService) AvailableCandidates(
	ctx context.Context,
	tx *gorm.DB,
	interval Interval,
) ([]uuid.UUID, error) {
	log := s.log.Function("AvailableCandidates")

	if _, err := NewInterval(interval.Start, interval.End); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0)
	err := tx.WithContext(ctx).
		Model(&Nanny{}).
		Scopes(AvailableScope(interval)).
		Order("nannies.id").
		Pluck("nannies.id", &ids).Error
	if err != nil {
		return nil, log.Err("failed to list available nannies", err)
	}

	return ids, nil
}
