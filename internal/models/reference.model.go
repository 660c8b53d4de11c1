package models

import (
	"strings"

	"gorm.io/gorm"
)

// Quality, Course and Career are reference rows shared by nanny profiles and
// booking wish-lists.

type Quality struct {
	BaseUUIDModel
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
}

func (q *Quality) BeforeCreate(tx *gorm.DB) error {
	if err := normalizeName(&q.Name); err != nil {
		return err
	}
	return q.BaseUUIDModel.BeforeCreate(tx)
}

type Course struct {
	BaseUUIDModel
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if err := normalizeName(&c.Name); err != nil {
		return err
	}
	return c.BaseUUIDModel.BeforeCreate(tx)
}

type Career struct {
	BaseUUIDModel
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
}

func (c *Career) BeforeCreate(tx *gorm.DB) error {
	if err := normalizeName(&c.Name); err != nil {
		return err
	}
	return c.BaseUUIDModel.BeforeCreate(tx)
}

func normalizeName(name *string) error {
	*name = strings.Join(strings.Fields(*name), " ")
	if *name == "" {
		return gorm.ErrInvalidValue
	}
	return nil
}
