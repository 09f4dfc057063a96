package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a saved shipping address, unique per user on every field.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:char(36);primaryKey"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_addresses_natural_key"`
	Street    string    `gorm:"column:street;size:255;not null;uniqueIndex:idx_addresses_natural_key"`
	Suburb    string    `gorm:"column:suburb;size:120;not null;default:'';uniqueIndex:idx_addresses_natural_key"`
	City      string    `gorm:"column:city;size:120;not null;uniqueIndex:idx_addresses_natural_key"`
	Postcode  string    `gorm:"column:postcode;size:20;not null;uniqueIndex:idx_addresses_natural_key"`
	Country   string    `gorm:"column:country;size:80;not null;uniqueIndex:idx_addresses_natural_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
