// Package games serves the read-only catalog.
package games

import (
	"context"

	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// Repository reads games.
type Repository interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Game, error)
	FindByID(ctx context.Context, id uint) (*models.Game, error)
	List(ctx context.Context, filters, window []Stage) ([]models.Game, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindByIDs returns the games that exist among ids, in no particular order.
func (r *repository) FindByIDs(ctx context.Context, ids []uint) ([]models.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var games []models.Game
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	if err := r.db.WithContext(ctx).First(&game, id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

// List counts the rows matching filters and returns the window page.
func (r *repository) List(ctx context.Context, filters, window []Stage) ([]models.Game, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Game{})

	var total int64
	if err := Apply(base.Session(&gorm.Session{}), filters...).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var games []models.Game
	stages := append(append([]Stage{}, filters...), window...)
	if err := Apply(base.Session(&gorm.Session{}), stages...).Find(&games).Error; err != nil {
		return nil, 0, err
	}
	return games, total, nil
}
