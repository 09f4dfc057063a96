package enums

import (
	"fmt"
	"slices"
)

// OutboxAggregateType names the entity an outbox event describes.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains([]OutboxAggregateType{AggregateOrder}, a)
}

// OutboxEventType identifies the domain event stored in the outbox. The
// value is also the event_type field consumers route on.
type OutboxEventType string

const EventOrderCreated OutboxEventType = "order.created"

var outboxEventTypes = []OutboxEventType{EventOrderCreated}

func (e OutboxEventType) IsValid() bool {
	return slices.Contains(outboxEventTypes, e)
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	if e := OutboxEventType(value); e.IsValid() {
		return e, nil
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
