package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/enums"
)

// CreditCard is a stored payment instrument. The plaintext number and the CVV
// have no column.
type CreditCard struct {
	ID                  uuid.UUID       `gorm:"column:id;type:char(36);primaryKey"`
	UserID              uint            `gorm:"column:user_id;not null;index"`
	NameOnCard          string          `gorm:"column:name_on_card;size:255;not null"`
	LastFourDigits      string          `gorm:"column:last_four_digits;type:char(4);not null"`
	CardNumberHash      string          `gorm:"column:card_number_hash;type:char(64);not null;uniqueIndex"`
	EncryptedCardNumber []byte          `gorm:"column:encrypted_card_number"`
	ExpirationDate      time.Time       `gorm:"column:expiration_date;type:date;not null"`
	CardBrand           enums.CardBrand `gorm:"column:card_brand;size:32;not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (c *CreditCard) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
