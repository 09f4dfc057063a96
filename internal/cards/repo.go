package cards

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

// ErrHashOwnedByOther is returned when the card number is stored for a
// different user.
var ErrHashOwnedByOther = errors.New("card hash registered to another user")

// Repository persists stored cards.
type Repository interface {
	UpsertByHash(ctx context.Context, card *models.CreditCard) (*models.CreditCard, bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.CreditCard, error)
	Delete(ctx context.Context, userID uint, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

// UpsertByHash inserts the card, or returns the existing row for the same
// user and number with created=false.
func (r *repository) UpsertByHash(ctx context.Context, card *models.CreditCard) (*models.CreditCard, bool, error) {
	// The savepoint keeps a postgres caller transaction usable after a
	// duplicate insert.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(card).Error
	})
	if err == nil {
		return card, true, nil
	}
	if !db.IsUniqueViolation(err) {
		return nil, false, err
	}

	var existing models.CreditCard
	if err := r.db.WithContext(ctx).Where("card_number_hash = ?", card.CardNumberHash).First(&existing).Error; err != nil {
		return nil, false, err
	}
	if existing.UserID != card.UserID {
		return nil, false, ErrHashOwnedByOther
	}
	return &existing, false, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uint) ([]models.CreditCard, error) {
	var cards []models.CreditCard
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *repository) Delete(ctx context.Context, userID uint, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CreditCard{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
