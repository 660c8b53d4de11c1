package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Nanny struct {
	BaseUUIDModel
	UserID          uuid.UUID                   `gorm:"type:uuid;uniqueIndex;not null"       json:"userId"`
	Available       bool                        `gorm:"type:bool;not null;index"             json:"available"`
	ExperienceSince *time.Time                  `                                            json:"experienceSince,omitempty"`
	Bio             string                      `gorm:"type:text"                            json:"bio"`
	HourlyRate      decimal.Decimal             `gorm:"type:numeric(10,2);not null;default:0" json:"hourlyRate"`
	Languages       datatypes.JSONSlice[string] `                                            json:"languages"`

	User      *User     `gorm:"foreignKey:UserID"       json:"user,omitempty"`
	Qualities []Quality `gorm:"many2many:nanny_qualities;" json:"qualities,omitempty"`
	Courses   []Course  `gorm:"many2many:nanny_courses;"   json:"courses,omitempty"`
	Careers   []Career  `gorm:"many2many:nanny_careers;"   json:"careers,omitempty"`
}

func (n *Nanny) BeforeCreate(tx *gorm.DB) error {
	if n.UserID == uuid.Nil {
		return gorm.ErrInvalidValue
	}
	if n.HourlyRate.IsNegative() {
		return gorm.ErrInvalidValue
	}
	if n.Languages == nil {
		n.Languages = datatypes.JSONSlice[string]{}
	}
	return n.BaseUUIDModel.BeforeCreate(tx)
}

// YearsOfExperience counts whole years since ExperienceSince at now.
func (n *Nanny) YearsOfExperience(now time.Time) int {
	if n.ExperienceSince == nil || n.ExperienceSince.After(now) {
		return 0
	}
	since := n.ExperienceSince.In(now.Location())
	years := now.Year() - since.Year()
	if now.YearDay() < since.YearDay() {
		years--
	}
	return max(years, 0)
}
