package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playdepot/playdepot-backend/pkg/config"
	"github.com/playdepot/playdepot-backend/pkg/db/models"
	"github.com/playdepot/playdepot-backend/pkg/enums"
	"github.com/playdepot/playdepot-backend/pkg/logger"
	"github.com/playdepot/playdepot-backend/pkg/metrics"
)

type fakeRepo struct {
	events      []models.OutboxEvent
	fetchErr    error
	gotLimit    int
	gotMax      int
	published   []uuid.UUID
	failed      map[uuid.UUID]string
	markFailErr error
}

func (r *fakeRepo) FetchUnpublished(_ context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	r.gotLimit, r.gotMax = limit, maxAttempts
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(_ context.Context, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(_ context.Context, id uuid.UUID, cause error) error {
	if r.markFailErr != nil {
		return r.markFailErr
	}
	if r.failed == nil {
		r.failed = map[uuid.UUID]string{}
	}
	r.failed[id] = cause.Error()
	return nil
}

type fakeStream struct {
	errs    []error
	entries []map[string]any
	streams []string
}

func (f *fakeStream) Ping(context.Context) error { return nil }

func (f *fakeStream) Publish(_ context.Context, stream string, values map[string]any) (string, error) {
	call := len(f.streams)
	f.streams = append(f.streams, stream)
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	f.entries = append(f.entries, values)
	return "1700000000000-0", nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{Outbox: config.OutboxConfig{
		Stream:       "domain-events",
		BatchSize:    25,
		PollInterval: 10 * time.Millisecond,
		MaxAttempts:  3,
	}}
}

func orderEvent(payload string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "ORD-AAAA1111",
		Payload:       payload,
		CreatedAt:     time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, repo *fakeRepo, stream *fakeStream, m *metrics.OutboxMetrics) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     testConfig(),
		Logger:     logger.Nop(),
		DB:         okPinger{},
		Stream:     stream,
		Repository: repo,
		Metrics:    m,
		InstanceID: "test",
	})
	require.NoError(t, err)
	return svc
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, eventType string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "event_type" && label.GetValue() == eventType {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first, second := orderEvent(`{"n":1}`), orderEvent(`{"n":2}`)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	stream := &fakeStream{errs: []error{errors.New("transient")}}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, repo, stream, metrics.NewOutboxMetrics(reg))

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	assert.Equal(t, 25, repo.gotLimit)
	assert.Equal(t, 3, repo.gotMax)
	assert.Equal(t, "transient", repo.failed[first.ID])
	assert.Equal(t, []uuid.UUID{second.ID}, repo.published)

	assert.Equal(t, float64(1), counterValue(t, reg, "playdepot_outbox_failed_total", "order.created"))
	assert.Equal(t, float64(1), counterValue(t, reg, "playdepot_outbox_published_total", "order.created"))
}

func TestProcessBatchWritesStreamFields(t *testing.T) {
	event := orderEvent(`{"order_id":"ORD-AAAA1111"}`)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	stream := &fakeStream{}
	svc := newTestService(t, repo, stream, nil)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, stream.entries, 1)

	assert.Equal(t, "domain-events", stream.streams[0])
	entry := stream.entries[0]
	assert.Equal(t, event.ID.String(), entry["event_id"])
	assert.Equal(t, "order.created", entry["event_type"])
	assert.Equal(t, "order", entry["aggregate_type"])
	assert.Equal(t, "ORD-AAAA1111", entry["aggregate_id"])
	assert.Equal(t, "2026-09-01T12:00:00Z", entry["created_at"])
	assert.Equal(t, `{"order_id":"ORD-AAAA1111"}`, entry["payload"])
}

func TestProcessBatchSurfacesRepositoryErrors(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	svc := newTestService(t, repo, &fakeStream{}, nil)

	_, err := svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	repo = &fakeRepo{
		events:      []models.OutboxEvent{orderEvent("{}")},
		markFailErr: errors.New("update failed"),
	}
	svc = newTestService(t, repo, &fakeStream{errs: []error{errors.New("redis down")}}, nil)
	_, err = svc.processBatch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update failed")
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeStream{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.Nop(),
		DB:         okPinger{},
		Stream:     &fakeStream{},
		Repository: &fakeRepo{},
	})
	require.NoError(t, err)
	assert.Equal(t, defaultBatchSize, svc.batchSize)
	assert.Equal(t, defaultMaxAttempts, svc.maxAttempts)
	assert.Equal(t, defaultPollInterval, svc.pollInterval)
	assert.Equal(t, defaultStream, svc.streamName)
}

func TestNextBackoffCaps(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, nextBackoff(8*time.Second, time.Second, 10*time.Second))
	assert.Equal(t, 2*time.Second, nextBackoff(0, time.Second, 10*time.Second))
}
