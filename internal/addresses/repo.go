// Package addresses stores shipping addresses for checkout autofill.
package addresses

import (
	"context"

	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// Repository persists saved addresses.
type Repository interface {
	Upsert(ctx context.Context, addr *models.Address) (*models.Address, bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Address, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts addr or returns the identical saved address with
// created=false.
func (r *repository) Upsert(ctx context.Context, addr *models.Address) (*models.Address, bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(addr).Error
	})
	if err == nil {
		return addr, true, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, false, err
	}

	var existing models.Address
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND street = ? AND suburb = ? AND city = ? AND postcode = ? AND country = ?",
			addr.UserID, addr.Street, addr.Suburb, addr.City, addr.Postcode, addr.Country).
		First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
