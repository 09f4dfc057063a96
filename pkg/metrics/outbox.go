package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records the publisher loop.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	batch     prometheus.Histogram
}

// NewOutboxMetrics registers the outbox publisher metrics.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playdepot_outbox_published_total",
		Help: "Outbox events published by event type.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playdepot_outbox_failed_total",
		Help: "Outbox publish failures by event type.",
	}, []string{"event_type"})
	batch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "playdepot_outbox_batch_duration_seconds",
		Help:    "Duration of one publish batch.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(published, failed, batch)
	return &OutboxMetrics{published: published, failed: failed, batch: batch}
}

func (o *OutboxMetrics) IncPublished(eventType string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) IncFailed(eventType string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (o *OutboxMetrics) ObserveBatch(elapsed time.Duration) {
	if o == nil || o.batch == nil {
		return
	}
	o.batch.Observe(elapsed.Seconds())
}

// OutboxBacklogMetrics exposes the unpublished outbox depth sampled by the
// cron worker.
type OutboxBacklogMetrics struct {
	pending prometheus.Gauge
	dead    prometheus.Gauge
}

func NewOutboxBacklogMetrics(reg prometheus.Registerer) *OutboxBacklogMetrics {
	if reg == nil {
		return nil
	}
	m := &OutboxBacklogMetrics{
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playdepot_outbox_pending_events",
			Help: "Unpublished outbox events still eligible for delivery.",
		}),
		dead: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "playdepot_outbox_dead_events",
			Help: "Unpublished outbox events that ran out of attempts.",
		}),
	}
	reg.MustRegister(m.pending, m.dead)
	return m
}

func (m *OutboxBacklogMetrics) SetBacklog(pending, dead int64) {
	if m == nil {
		return
	}
	m.pending.Set(float64(pending))
	m.dead.Set(float64(dead))
}
