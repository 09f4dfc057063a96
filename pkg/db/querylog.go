package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/playdepot/playdepot-backend/pkg/logger"
)

// queryLogger adapts gorm's logger hooks onto the service logger. Only slow
// statements and unexpected query errors are written; record-not-found is
// normal control flow here.
type queryLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
}

func newQueryLogger(logg *logger.Logger, slow time.Duration) *queryLogger {
	if logg == nil {
		logg = logger.Nop()
	}
	return &queryLogger{logg: logg, slowThreshold: slow}
}

func (q *queryLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }

func (q *queryLogger) Info(context.Context, string, ...any) {}

func (q *queryLogger) Warn(ctx context.Context, msg string, _ ...any) {
	q.logg.Warn(ctx, "gorm: "+msg)
}

func (q *queryLogger) Error(ctx context.Context, msg string, _ ...any) {
	q.logg.Error(ctx, "gorm: "+msg, nil)
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	slow := q.slowThreshold > 0 && elapsed > q.slowThreshold
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	if !slow && !failed {
		return
	}

	sql, rows := fc()
	ctx = q.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
	if failed {
		q.logg.WarnErr(ctx, "query failed", err)
		return
	}
	q.logg.Warn(ctx, "slow query")
}

// ParamsFilter keeps bound values (card hashes, emails) out of logged SQL.
func (q *queryLogger) ParamsFilter(_ context.Context, sql string, _ ...any) (string, []any) {
	return sql, nil
}
