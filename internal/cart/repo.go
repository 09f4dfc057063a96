// Package cart manages the games a user intends to buy.
package cart

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// Repository persists cart items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Quantity(ctx context.Context, userID, gameID uint) (int, error)
	Increment(ctx context.Context, userID, gameID uint, qty, limit int, at time.Time) error
	SetQuantity(ctx context.Context, userID, gameID uint, qty int, at time.Time) error
	Remove(ctx context.Context, userID, gameID uint) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error)
	DeleteByGames(ctx context.Context, userID uint, gameIDs []uint) error
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

var userGameColumns = []clause.Column{{Name: "user_id"}, {Name: "game_id"}}

// Quantity returns the stored quantity for the line, or 0 when absent.
func (r *repository) Quantity(ctx context.Context, userID, gameID uint) (int, error) {
	var qty int
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Scan(&qty).Error
	return qty, err
}

// Increment adds qty to the existing row or inserts a new one. The stored
// quantity never exceeds limit, even when concurrent adds race.
func (r *repository) Increment(ctx context.Context, userID, gameID uint, qty, limit int, at time.Time) error {
	item := models.CartItem{UserID: userID, GameID: gameID, Quantity: min(qty, limit), AddedDate: at}
	capped := gorm.Expr(
		"CASE WHEN cart_items.quantity + ? > ? THEN ? ELSE cart_items.quantity + ? END",
		qty, limit, limit, qty,
	)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   userGameColumns,
			DoUpdates: clause.Assignments(map[string]any{"quantity": capped}),
		}).
		Create(&item).Error
}

// SetQuantity overwrites the quantity, inserting the row when missing.
func (r *repository) SetQuantity(ctx context.Context, userID, gameID uint, qty int, at time.Time) error {
	item := models.CartItem{UserID: userID, GameID: gameID, Quantity: qty, AddedDate: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   userGameColumns,
			DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
		}).
		Create(&item).Error
}

func (r *repository) Remove(ctx context.Context, userID, gameID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ?", userID).
		Order("added_date ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) DeleteByGames(ctx context.Context, userID uint, gameIDs []uint) error {
	if len(gameIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND game_id IN ?", userID, gameIDs).
		Delete(&models.CartItem{}).Error
}
