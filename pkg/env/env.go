// Package env holds the few process settings read outside config.Load:
// ones the logger and platform adapters need before or without a Config.
package env

import (
	"os"
	"strings"
)

const (
	// LogFormat selects "json" (default) or "console" log output.
	LogFormat = "PLAYDEPOT_LOG_FORMAT"
	// InstanceID overrides the detected replica identity.
	InstanceID = "PLAYDEPOT_INSTANCE_ID"
	// Port is set by hosting platforms and wins over the configured port.
	Port = "PORT"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
