// Package orders persists and reads completed purchases.
package orders

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	ListByUser(ctx context.Context, userID uint, params pagination.Params) ([]models.Order, *pagination.Cursor, error)
	FindForUser(ctx context.Context, userID uint, orderID string) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order row alone inside a savepoint, so a duplicate
// id leaves the surrounding transaction usable.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(order).Error
	})
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

// ListByUser pages through orders newest first. The returned cursor is nil on
// the last page.
func (r *repository) ListByUser(ctx context.Context, userID uint, params pagination.Params) ([]models.Order, *pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Items.Game").
		Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(order_date, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("order_date DESC, id DESC").Limit(pagination.FetchLimit(params.Limit)).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	orders, more := pagination.Take(orders, params.Limit)
	if !more {
		return orders, nil, nil
	}
	last := orders[len(orders)-1]
	return orders, &pagination.Cursor{CreatedAt: last.OrderDate, ID: last.ID}, nil
}

func (r *repository) FindForUser(ctx context.Context, userID uint, orderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Preload("Items.Game").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
