package registry

import "time"

// Stats is a point-in-time summary of the registry, shaped for the
// stats endpoints.
type Stats struct {
	TotalDomains   int                    `json:"total_domains"`
	EnabledDomains int                    `json:"enabled_domains"`
	HealthCounts   map[Health]int         `json:"health_counts"`
	Domains        map[string]DomainStats `json:"domains"`
}

// DomainStats is the per-domain slice of Stats.
type DomainStats struct {
	Version         string     `json:"version"`
	Health          Health     `json:"health"`
	Enabled         bool       `json:"enabled"`
	Priority        int        `json:"priority"`
	RegisteredAt    time.Time  `json:"registered_at"`
	LastHealthCheck *time.Time `json:"last_health_check,omitempty"`
	Dependencies    []string   `json:"dependencies,omitempty"`
}

// Stats snapshots the registry.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalDomains: len(r.records),
		HealthCounts: map[Health]int{
			Healthy:   0,
			Degraded:  0,
			Unhealthy: 0,
			Unknown:   0,
		},
		Domains: make(map[string]DomainStats, len(r.records)),
	}

	for name, rec := range r.records {
		if rec.Enabled {
			stats.EnabledDomains++
		}
		stats.HealthCounts[rec.Health]++

		snap := rec.snapshot()
		stats.Domains[name] = DomainStats{
			Version:         snap.Version,
			Health:          snap.Health,
			Enabled:         snap.Enabled,
			Priority:        snap.Priority,
			RegisteredAt:    snap.RegisteredAt,
			LastHealthCheck: snap.LastHealthCheck,
			Dependencies:    snap.Dependencies,
		}
	}
	return stats
}
