package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/enums"
)

// OutboxEvent represents an append-only event emitted via the outbox pattern.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:char(36);primaryKey"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;size:64;not null"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;size:64;not null"`
	AggregateID   string                    `gorm:"column:aggregate_id;size:64;not null"`
	Payload       string                    `gorm:"column:payload;type:text;not null"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error;type:text"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
