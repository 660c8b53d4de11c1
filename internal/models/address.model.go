package models

import (
	"github.com/google/uuid"
)

// Address belongs to exactly one user, booking or appointment.
type Address struct {
	BaseUUIDModel
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index:idx_addresses_owner,priority:1" json:"ownerId"`
	OwnerType  string    `gorm:"type:text;not null;index:idx_addresses_owner,priority:2" json:"ownerType"`
	Street     string    `gorm:"type:text;not null"                                      json:"street"`
	City       string    `gorm:"type:text;not null"                                      json:"city"`
	PostalCode string    `gorm:"type:text"                                               json:"postalCode"`
	Notes      string    `gorm:"type:text"                                               json:"notes"`
}
