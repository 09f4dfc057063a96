package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderIDLength is the length of the random order token.
const OrderIDLength = 8

// Order is written once by checkout and never updated.
type Order struct {
	ID          string          `gorm:"column:id;type:char(8);primaryKey"`
	UserID      uint            `gorm:"column:user_id;not null;index"`
	OrderDate   time.Time       `gorm:"column:order_date;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(10,2);not null"`
	IsCompleted bool            `gorm:"column:is_completed;not null;default:false"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem freezes the price paid for one game in an order.
type OrderItem struct {
	ID            uint            `gorm:"column:id;primaryKey"`
	OrderID       string          `gorm:"column:order_id;type:char(8);not null;uniqueIndex:idx_order_items_order_game"`
	GameID        uint            `gorm:"column:game_id;not null;uniqueIndex:idx_order_items_order_game"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:decimal(10,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null;default:1"`

	Game Game `gorm:"foreignKey:GameID"`
}
