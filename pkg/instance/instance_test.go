package instance

import (
	"testing"

	"github.com/playdepot/playdepot-backend/pkg/env"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(env.InstanceID, "publisher-2")
	if got := GetID(); got != "publisher-2" {
		t.Fatalf("expected publisher-2 got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv(env.InstanceID, "")
	if got := GetID(); got == "" {
		t.Fatal("expected a non-empty fallback id")
	}
}
