// Package users serves account profiles.
package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// Repository reads user accounts.
type Repository interface {
	FindWithCart(ctx context.Context, id uint) (*models.User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindWithCart(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("CartItems", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("added_date ASC, id ASC")
		}).
		Preload("CartItems.Game").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
