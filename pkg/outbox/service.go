package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

var ErrTxRequired = errors.New("outbox emit requires the caller's transaction")

// DomainEvent is a state change to announce once its transaction commits.
// Zero Version and OccurredAt default to 1 and now.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("unknown outbox event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("unknown outbox aggregate type %q", e.AggregateType)
	case e.AggregateID == "":
		return errors.New("outbox event needs an aggregate id")
	}
	return nil
}

// envelope wraps the event data under a fresh event id.
func (e DomainEvent) envelope(id uuid.UUID) ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", e.EventType, err)
	}
	env := PayloadEnvelope{
		Version:    max(e.Version, 1),
		EventID:    id.String(),
		EventType:  e.EventType,
		OccurredAt: e.OccurredAt,
		Actor:      e.Actor,
		Data:       data,
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(env)
}

// Service writes domain events into the outbox table.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{repo: repo, logg: logg}
}

// Emit inserts event through tx, so the row exists only if the surrounding
// state change commits. cmd/outbox-publisher delivers it afterwards.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrTxRequired
	}
	if err := event.validate(); err != nil {
		return err
	}

	id := uuid.New()
	payload, err := event.envelope(id)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       string(payload),
	}); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"event_id":     id.String(),
		"event_type":   event.EventType,
		"aggregate_id": event.AggregateID,
	}), "outbox event queued")
	return nil
}
