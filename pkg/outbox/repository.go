package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

// FetchUnpublished returns the oldest pending events first. Events that
// already failed maxAttempts times are skipped; maxAttempts <= 0 disables the
// cap.
func (r *Repository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	query := r.db.WithContext(ctx).Where("published_at IS NULL")
	if maxAttempts > 0 {
		query = query.Where("attempt_count < ?", maxAttempts)
	}
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("published_at", time.Now().UTC()).Error
}

// MarkFailed records a failed publish attempt.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempt_count": gorm.Expr("attempt_count + 1"),
			"last_error":    msg,
		}).Error
}

// DeleteSettledBefore removes events that no longer need the publisher:
// published rows older than cutoff and rows that exhausted maxAttempts before
// cutoff.
func (r *Repository) DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	query := conn.WithContext(ctx).Where("published_at IS NOT NULL AND published_at < ?", cutoff)
	if maxAttempts > 0 {
		query = query.Or("published_at IS NULL AND attempt_count >= ? AND created_at < ?", maxAttempts, cutoff)
	}
	res := query.Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

// Backlog reports how many events are waiting and how many gave up.
func (r *Repository) Backlog(ctx context.Context, maxAttempts int) (pending, dead int64, err error) {
	base := r.db.WithContext(ctx).Model(&models.OutboxEvent{}).Where("published_at IS NULL")
	if maxAttempts <= 0 {
		err = base.Count(&pending).Error
		return pending, 0, err
	}
	if err = base.Session(&gorm.Session{}).Where("attempt_count < ?", maxAttempts).Count(&pending).Error; err != nil {
		return 0, 0, err
	}
	err = base.Session(&gorm.Session{}).Where("attempt_count >= ?", maxAttempts).Count(&dead).Error
	return pending, dead, err
}
