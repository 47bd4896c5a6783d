package registry

import (
	"maps"
	"time"

	"github.com/angeloszaimis/cognitive-core/internal/domain"
)

// Health is the registry's view of a domain's operational state.
type Health string

const (
	Healthy   Health = "healthy"
	Degraded  Health = "degraded"
	Unhealthy Health = "unhealthy"
	Unknown   Health = "unknown"
)

// defaultVersion is assumed when a registration does not state one.
const defaultVersion = "1.0.0"

// Record is everything the registry knows about one domain. Domains
// start with Unknown health until the first probe or manual override.
type Record struct {
	Name            string
	Processor       domain.Processor
	RegisteredAt    time.Time
	Version         string
	Health          Health
	LastHealthCheck *time.Time
	Metadata        map[string]any
	Dependencies    []string
	Priority        int
	Enabled         bool
}

// RegisterOptions carries the optional attributes of a registration.
// The zero value is valid: version defaults to "1.0.0", priority to 0.
type RegisterOptions struct {
	Version      string
	Metadata     map[string]any
	Dependencies []string
	Priority     int
}

// snapshot returns a copy safe to hand outside the lock; callers
// cannot mutate registry state through it.
func (r *Record) snapshot() Record {
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	c.Dependencies = append([]string(nil), r.Dependencies...)
	if r.LastHealthCheck != nil {
		t := *r.LastHealthCheck
		c.LastHealthCheck = &t
	}
	return c
}
