package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/logger"
)

const (
	outboxRetentionJobName = "outbox-retention"
	outboxBacklogJobName   = "outbox-backlog"

	defaultOutboxRetention   = 30 * 24 * time.Hour
	defaultOutboxMaxAttempts = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeleteSettledBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error)
}

type outboxBacklogRepo interface {
	Backlog(ctx context.Context, maxAttempts int) (pending, dead int64, err error)
}

type backlogGauge interface {
	SetBacklog(pending, dead int64)
}

func attemptsOrDefault(n int) int {
	if n <= 0 {
		return defaultOutboxMaxAttempts
	}
	return n
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxRetentionRepo
	Retention   time.Duration
	MaxAttempts int
}

// outboxRetentionJob deletes rows the publisher is finished with: published
// rows, and dead rows that exhausted their attempts, once older than the
// retention window.
type outboxRetentionJob struct {
	OutboxRetentionJobParams
	now func() time.Time
}

func NewOutboxRetentionJob(p OutboxRetentionJobParams) (Job, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("outbox retention: logger required")
	case p.DB == nil:
		return nil, errors.New("outbox retention: transaction runner required")
	case p.Repository == nil:
		return nil, errors.New("outbox retention: repository required")
	}
	if p.Retention <= 0 {
		p.Retention = defaultOutboxRetention
	}
	p.MaxAttempts = attemptsOrDefault(p.MaxAttempts)
	return &outboxRetentionJob{OutboxRetentionJobParams: p, now: time.Now}, nil
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.Retention)
	var deleted int64
	err := j.DB.WithTx(ctx, func(tx *gorm.DB) (err error) {
		deleted, err = j.Repository.DeleteSettledBefore(ctx, tx, cutoff, j.MaxAttempts)
		return err
	})
	if err != nil {
		return fmt.Errorf("purge outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.Logger.Info(j.Logger.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "outbox rows purged")
	return nil
}

// outboxBacklogJob samples the unpublished depth. Dead events log at warn so
// alerting picks them up.
type outboxBacklogJob struct {
	logg        *logger.Logger
	repo        outboxBacklogRepo
	gauge       backlogGauge
	maxAttempts int
}

// NewOutboxBacklogJob builds the backlog probe. gauge may be nil.
func NewOutboxBacklogJob(logg *logger.Logger, repo outboxBacklogRepo, gauge backlogGauge, maxAttempts int) (Job, error) {
	if logg == nil || repo == nil {
		return nil, errors.New("outbox backlog: logger and repository required")
	}
	return &outboxBacklogJob{logg: logg, repo: repo, gauge: gauge, maxAttempts: attemptsOrDefault(maxAttempts)}, nil
}

func (j *outboxBacklogJob) Name() string { return outboxBacklogJobName }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	pending, dead, err := j.repo.Backlog(ctx, j.maxAttempts)
	if err != nil {
		return fmt.Errorf("count outbox backlog: %w", err)
	}
	if j.gauge != nil {
		j.gauge.SetBacklog(pending, dead)
	}

	ctx = j.logg.WithFields(ctx, map[string]any{"pending": pending, "dead": dead})
	if dead > 0 {
		j.logg.Warn(ctx, "outbox events exceeded max attempts")
		return nil
	}
	j.logg.Info(ctx, "outbox backlog checked")
	return nil
}
