package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/playdepot/playdepot-backend/pkg/logger"
)

func TestServeDisabledWithoutAddr(t *testing.T) {
	if err := Serve(context.Background(), "", prometheus.NewRegistry(), logger.Nop()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry(), logger.Nop()) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
