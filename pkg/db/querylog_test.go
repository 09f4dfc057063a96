package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/playdepot/playdepot-backend/pkg/logger"
)

func bufferedQueryLogger(slow time.Duration) (*queryLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return newQueryLogger(logger.New(logger.Options{ServiceName: "test", Format: "json", Output: buf}), slow), buf
}

func TestQueryLoggerSkipsFastAndNotFound(t *testing.T) {
	q, buf := bufferedQueryLogger(time.Second)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	q.Trace(context.Background(), time.Now(), sql, nil)
	q.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len())
}

func TestQueryLoggerReportsSlowAndFailed(t *testing.T) {
	q, buf := bufferedQueryLogger(10 * time.Millisecond)
	sql := func() (string, int64) { return "SELECT * FROM games WHERE id = ?", 0 }

	q.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), `"message":"slow query"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT * FROM games WHERE id = ?"`)

	buf.Reset()
	q.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))
	assert.Contains(t, buf.String(), `"message":"query failed"`)
	assert.Contains(t, buf.String(), `"error":"connection reset"`)
}

func TestQueryLoggerDropsParams(t *testing.T) {
	q, _ := bufferedQueryLogger(0)
	sql, params := q.ParamsFilter(context.Background(), "SELECT 1 WHERE hash = ?", "secret-hash")
	assert.Equal(t, "SELECT 1 WHERE hash = ?", sql)
	assert.Nil(t, params)
}
