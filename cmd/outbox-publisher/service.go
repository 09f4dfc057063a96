package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 5 * time.Second
	defaultMaxAttempts    = 10
	defaultStream         = "domain-events"
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

// streamPublisher delivers one event to a named destination: a Redis stream
// or a Pub/Sub topic.
type streamPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, stream string, values map[string]any) (string, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Stream     streamPublisher
	Repository outboxRepository
	Metrics    *metrics.OutboxMetrics
	InstanceID string
	// Destination overrides Config.Outbox.Stream.
	Destination string
}

// Service relays committed outbox rows to the domain event stream. Delivery
// is at least once; consumers dedupe on event_id.
type Service struct {
	logg         *logger.Logger
	db           pinger
	stream       streamPublisher
	repo         outboxRepository
	metrics      *metrics.OutboxMetrics
	streamName   string
	instanceID   string
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Stream == nil {
		return nil, errors.New("stream publisher is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}

	cfg := params.Config.Outbox
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	stream := cfg.Stream
	if params.Destination != "" {
		stream = params.Destination
	}
	if stream == "" {
		stream = defaultStream
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		stream:       params.Stream,
		repo:         params.Repository,
		metrics:      params.Metrics,
		streamName:   stream,
		instanceID:   params.InstanceID,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	return pingDependency(ctx, s.logg, "event transport", s.stream.Ping)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := s.pollInterval
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.pollInterval
		if processed > 0 {
			continue
		}
		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one batch and reports how many rows it looked at.
// A failed publish is recorded on the row and does not stop the batch.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBatch(time.Since(start)) }()

	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished: %w", err)
	}

	for _, event := range events {
		fields := s.eventFields(event)
		entryID, pubErr := s.publish(ctx, event)
		if pubErr != nil {
			s.metrics.IncFailed(string(event.EventType))
			fields["attempt_count"] = event.AttemptCount + 1
			if event.AttemptCount+1 >= s.maxAttempts {
				fields["terminal_reason"] = "max_attempts"
			}
			s.logg.WarnErr(s.logg.WithFields(ctx, fields), "outbox publish failed", pubErr)
			if markErr := s.repo.MarkFailed(ctx, event.ID, pubErr); markErr != nil {
				return len(events), fmt.Errorf("mark failure %s: %w", event.ID, markErr)
			}
			continue
		}

		if markErr := s.repo.MarkPublished(ctx, event.ID); markErr != nil {
			return len(events), fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.metrics.IncPublished(string(event.EventType))
		fields["stream_entry_id"] = entryID
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
	}
	return len(events), nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent) (string, error) {
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	return s.stream.Publish(publishCtx, s.streamName, map[string]any{
		"event_id":       event.ID.String(),
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID,
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		"payload":        event.Payload,
	})
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"attempt_count":  event.AttemptCount,
		"stream":         s.streamName,
	}
	if s.instanceID != "" {
		fields["instance"] = s.instanceID
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}
