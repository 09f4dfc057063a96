// Package library tracks which games a user owns.
package library

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// Repository reads and writes ownership grants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GrantMany(ctx context.Context, userID uint, gameIDs []uint, at time.Time) error
	OwnedAmong(ctx context.Context, userID uint, gameIDs []uint) (map[uint]struct{}, error)
	ListOwned(ctx context.Context, userID uint) ([]models.OwnedGame, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GrantMany inserts one OwnedGame per game. A duplicate grant surfaces as the
// driver's unique violation.
func (r *repository) GrantMany(ctx context.Context, userID uint, gameIDs []uint, at time.Time) error {
	if len(gameIDs) == 0 {
		return nil
	}
	rows := make([]models.OwnedGame, 0, len(gameIDs))
	for _, id := range gameIDs {
		rows = append(rows, models.OwnedGame{UserID: userID, GameID: id, PurchaseDate: at})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) OwnedAmong(ctx context.Context, userID uint, gameIDs []uint) (map[uint]struct{}, error) {
	owned := make(map[uint]struct{})
	if len(gameIDs) == 0 {
		return owned, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.OwnedGame{}).
		Where("user_id = ? AND game_id IN ?", userID, gameIDs).
		Pluck("game_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	return owned, nil
}

func (r *repository) ListOwned(ctx context.Context, userID uint) ([]models.OwnedGame, error) {
	var rows []models.OwnedGame
	err := r.db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ?", userID).
		Order("purchase_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
