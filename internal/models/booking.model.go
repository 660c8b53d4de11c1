package models

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"nannyhub/internal/lifecycle"
	"nannyhub/internal/types"
)

const (
	MinRecurringAppointments = 2
	MaxRecurringAppointments = 10
)

type Booking struct {
	BaseRecordModel
	TutorID     uuid.UUID `gorm:"type:uuid;not null;index" json:"tutorId"`
	Description string    `gorm:"type:text"                json:"description"`
	Recurrent   bool      `gorm:"type:bool;not null"       json:"recurrent"`

	Tutor        *User         `gorm:"foreignKey:TutorID"                      json:"tutor,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE" json:"appointments,omitempty"`
	Address      *Address      `gorm:"polymorphic:Owner;"                      json:"address,omitempty"`
	Children     []Child       `gorm:"many2many:booking_children;"             json:"children,omitempty"`
	Qualities    []Quality     `gorm:"many2many:booking_qualities;"            json:"qualities,omitempty"`
	Courses      []Course      `gorm:"many2many:booking_courses;"              json:"courses,omitempty"`
	Careers      []Career      `gorm:"many2many:booking_careers;"              json:"careers,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.TutorID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	return b.BaseRecordModel.BeforeCreate(tx)
}

// ValidateAppointmentCount enforces one appointment for a single booking and
// two to ten for a recurring one.
func ValidateAppointmentCount(recurrent bool, count int) error {
	if !recurrent && count != 1 {
		return fmt.Errorf(
			"%w: a single booking needs exactly 1 appointment, got %d",
			types.ErrInvalidInterval, count,
		)
	}
	if recurrent && (count < MinRecurringAppointments || count > MaxRecurringAppointments) {
		return fmt.Errorf(
			"%w: a recurring booking needs %d to %d appointments, got %d",
			types.ErrInvalidInterval, MinRecurringAppointments, MaxRecurringAppointments, count,
		)
	}
	return nil
}

// Mutable reports whether every loaded appointment is still an unassigned draft.
func (b *Booking) Mutable() bool {
	for _, appointment := range b.Appointments {
		if appointment.Status != lifecycle.Draft || appointment.HasNanny() {
			return false
		}
	}
	return true
}

// WishList collects the ids of every quality, course and career the tutor asked for.
func (b *Booking) WishList() (qualities, courses, careers []uuid.UUID) {
	for _, q := range b.Qualities {
		qualities = append(qualities, q.ID)
	}
	for _, c := range b.Courses {
		courses = append(courses, c.ID)
	}
	for _, c := range b.Careers {
		careers = append(careers, c.ID)
	}
	return qualities, courses, careers
}
