package models

import "time"

// OwnedGame is a permanent ownership grant. One row per (user, game).
type OwnedGame struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	UserID       uint      `gorm:"column:user_id;not null;uniqueIndex:idx_owned_games_user_game"`
	GameID       uint      `gorm:"column:game_id;not null;uniqueIndex:idx_owned_games_user_game"`
	PurchaseDate time.Time `gorm:"column:purchase_date;not null"`

	Game Game `gorm:"foreignKey:GameID"`
}
