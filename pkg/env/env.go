// Package env reads process configuration, letting DUKAPOS_-prefixed
// variables shadow their bare names so the service can be tuned without
// touching host-wide settings.
package env

import (
	"os"
	"strings"
)

const servicePrefix = "DUKAPOS_"

// Get resolves key to a value. The prefixed form wins over the bare form,
// and blank values fall through to the fallback.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(servicePrefix + key)); val != "" {
		return val
	}
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
