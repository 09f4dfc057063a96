package instance

import (
	"os"

	"github.com/playdepot/playdepot-backend/pkg/env"
)

// GetID returns the identifier used to tell replicas apart in logs and
// publisher metrics: env.InstanceID if set, else the hostname, else "local".
func GetID() string {
	if id := env.Get(env.InstanceID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
