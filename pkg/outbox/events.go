package outbox

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playdepot/playdepot-backend/pkg/enums"
)

// ActorRef names the user whose request produced the event.
type ActorRef struct {
	UserID uint `json:"user_id"`
}

// PayloadEnvelope is what consumers read from the payload field. EventID
// equals the outbox row id and the event_id stream field.
type PayloadEnvelope struct {
	Version    int                   `json:"version"`
	EventID    string                `json:"event_id"`
	EventType  enums.OutboxEventType `json:"event_type"`
	OccurredAt time.Time             `json:"occurred_at"`
	Actor      *ActorRef             `json:"actor,omitempty"`
	Data       json.RawMessage       `json:"data"`
}

// OrderCreatedEvent is emitted inside the checkout transaction.
type OrderCreatedEvent struct {
	OrderID     string          `json:"order_id"`
	UserID      uint            `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	GameIDs     []uint          `json:"game_ids"`
	OrderDate   time.Time       `json:"order_date"`
}
