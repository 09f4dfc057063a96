package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type memoryLeases struct {
	values     map[string]string
	releaseErr error
}

func (m *memoryLeases) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLeases) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	if m.releaseErr != nil {
		return false, m.releaseErr
	}
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memoryLeases{values: map[string]string{}}
	first, err := NewRedisLock(store, "pd:lock:cron-worker:test", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "pd:lock:cron-worker:test", 0)
	ctx := context.Background()

	if ok, err := first.Acquire(ctx); err != nil || !ok {
		t.Fatalf("expected first acquire, got %v %v", ok, err)
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second acquire should fail while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if _, held := store.values["pd:lock:cron-worker:test"]; !held {
		t.Fatal("non-owner release must not drop the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("expected acquire after release")
	}
}

func TestRedisLockLeavesForeignLease(t *testing.T) {
	store := &memoryLeases{values: map[string]string{}}
	lock, _ := NewRedisLock(store, "k", time.Minute)
	ctx := context.Background()

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	// lease expired and another replica took it
	store.values["k"] = "other-replica"

	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["k"] != "other-replica" {
		t.Fatalf("foreign lease was removed: %v", store.values)
	}
}

func TestRedisLockReleaseError(t *testing.T) {
	store := &memoryLeases{values: map[string]string{}, releaseErr: errors.New("conn reset")}
	lock, _ := NewRedisLock(store, "k", time.Minute)
	ctx := context.Background()

	if ok, _ := lock.Acquire(ctx); !ok {
		t.Fatal("expected acquire")
	}
	if err := lock.Release(ctx); err == nil {
		t.Fatal("expected release error")
	}
	// token is cleared so a second release is a no-op
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRedisLock(&memoryLeases{}, "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}
}
