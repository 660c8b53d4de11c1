package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleTutor Role = "tutor"
	RoleNanny Role = "nanny"
)

type User struct {
	BaseUUIDModel
	FirstName string `gorm:"type:text;not null"             json:"firstName"`
	LastName  string `gorm:"type:text;not null"             json:"lastName"`
	Email     string `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Role      Role   `gorm:"type:text;not null;index"       json:"role"`
	IsActive  bool   `gorm:"type:bool;default:true"         json:"isActive"`

	Nanny   *Nanny   `gorm:"foreignKey:UserID"  json:"nanny,omitempty"`
	Address *Address `gorm:"polymorphic:Owner;" json:"address,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return gorm.ErrInvalidValue
	}
	switch u.Role {
	case RoleAdmin, RoleTutor, RoleNanny:
	case "":
		u.Role = RoleTutor
	default:
		return gorm.ErrInvalidValue
	}
	return u.BaseUUIDModel.BeforeCreate(tx)
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NannyID is the nanny profile id, or nil when the user has none loaded.
func (u *User) NannyID() *uuid.UUID {
	if u.Nanny == nil || u.Nanny.ID == uuid.Nil {
		return nil
	}
	id := u.Nanny.ID
	return &id
}
