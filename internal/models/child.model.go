package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Child struct {
	BaseUUIDModel
	TutorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"tutorId"`
	Name      string     `gorm:"type:text;not null"       json:"name"`
	BirthDate *time.Time `                                json:"birthDate,omitempty"`
	Notes     string     `gorm:"type:text"                json:"notes"`
}

func (c *Child) BeforeCreate(tx *gorm.DB) error {
	if c.TutorID == uuid.Nil || c.Name == "" {
		return gorm.ErrInvalidValue
	}
	return c.BaseUUIDModel.BeforeCreate(tx)
}
