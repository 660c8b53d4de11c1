package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nannyhub/internal/lifecycle"
	"nannyhub/internal/types"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Appointment struct {
	BaseRecordModel
	BookingID       uuid.UUID        `gorm:"type:uuid;not null;index"                                json:"bookingId"`
	NannyID         *uuid.UUID       `gorm:"type:uuid;index:idx_appointments_nanny_interval,priority:1" json:"nannyId"`
	StartAt         time.Time        `gorm:"not null;index:idx_appointments_nanny_interval,priority:2" json:"startAt"`
	EndAt           time.Time        `gorm:"not null;index:idx_appointments_nanny_interval,priority:3" json:"endAt"`
	Status          lifecycle.Status `gorm:"type:text;not null;default:'draft';index"                json:"status"`
	PaymentStatus   PaymentStatus    `gorm:"type:text;not null;default:'unpaid'"                     json:"paymentStatus"`
	ExtraHours      decimal.Decimal  `gorm:"type:numeric(6,2);not null;default:0"                    json:"extraHours"`
	TotalCost       decimal.Decimal  `gorm:"type:numeric(10,2);not null;default:0"                   json:"totalCost"`
	ReviewedByTutor bool             `gorm:"type:bool;not null;default:false"                        json:"reviewedByTutor"`
	ReviewedByNanny bool             `gorm:"type:bool;not null;default:false"                        json:"reviewedByNanny"`

	Booking *Booking `gorm:"foreignKey:BookingID" json:"booking,omitempty"`
	Nanny   *Nanny   `gorm:"foreignKey:NannyID"   json:"nanny,omitempty"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.BookingID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if a.Status == "" {
		a.Status = lifecycle.Draft
	}
	if a.PaymentStatus == "" {
		a.PaymentStatus = PaymentUnpaid
	}
	return a.BaseRecordModel.BeforeCreate(tx)
}

// BeforeSave runs on every create and save: the interval must be valid and
// the status catches up with the clock.
func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	if !a.EndAt.After(a.StartAt) {
		return fmt.Errorf("%w: appointment must end after it starts", types.ErrInvalidInterval)
	}
	if !lifecycle.Valid(a.Status) && a.Status != "" {
		return fmt.Errorf("%w: unknown status %q", types.ErrInvalidTransition, a.Status)
	}
	a.Status = lifecycle.Passive(a.Status, a.StartAt, a.EndAt, time.Now())
	return nil
}

func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartAt, End: a.EndAt}
}

func (a *Appointment) HasNanny() bool {
	return a.NannyID != nil && *a.NannyID != uuid.Nil
}

// Cost is the hourly rate times the booked duration plus extra hours.
func (a *Appointment) Cost(hourlyRate decimal.Decimal) decimal.Decimal {
	hours := decimal.NewFromFloat(a.Interval().Duration().Hours()).Add(a.ExtraHours)
	return hourlyRate.Mul(hours).Round(2)
}
