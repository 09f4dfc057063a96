package models

import "time"

// CartItem is a pending purchase. One row per (user, game).
type CartItem struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_cart_items_user_game"`
	GameID    uint      `gorm:"column:game_id;not null;uniqueIndex:idx_cart_items_user_game"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	AddedDate time.Time `gorm:"column:added_date;not null"`

	Game Game `gorm:"foreignKey:GameID"`
}
