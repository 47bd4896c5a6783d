package registry

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/angeloszaimis/cognitive-core/internal/domain"
)

// Registry tracks registered domain processors in insertion order.
type Registry struct {
	mu       sync.RWMutex
	records  map[string]*Record
	order    []string
	handlers map[string][]EventHandler
	logger   *slog.Logger
}

// New creates an empty registry.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		records:  make(map[string]*Record),
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// Register adds a processor under its own name. A duplicate name is a
// benign no-op reported as false; naming a dependency that is not
// registered yet is a contract violation reported as a
// *DependencyError.
func (r *Registry) Register(p domain.Processor, opts RegisterOptions) (bool, error) {
	if p == nil || p.Name() == "" {
		return false, ErrInvalidProcessor
	}
	name := p.Name()

	r.mu.Lock()
	if _, exists := r.records[name]; exists {
		r.mu.Unlock()
		r.logger.Warn("domain already registered", "domain", name)
		return false, nil
	}

	var missing []string
	for _, dep := range opts.Dependencies {
		if _, ok := r.records[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		r.mu.Unlock()
		return false, &DependencyError{Domain: name, Missing: missing}
	}

	version := opts.Version
	if version == "" {
		version = defaultVersion
	}

	rec := &Record{
		Name:         name,
		Processor:    p,
		RegisteredAt: time.Now(),
		Version:      version,
		Health:       Unknown,
		Metadata:     maps.Clone(opts.Metadata),
		Dependencies: append([]string(nil), opts.Dependencies...),
		Priority:     opts.Priority,
		Enabled:      true,
	}
	r.records[name] = rec
	r.order = append(r.order, name)
	snap := rec.snapshot()
	r.mu.Unlock()

	r.logger.Info("domain registered",
		"domain", name,
		"version", version,
		"priority", opts.Priority,
		"dependencies", len(opts.Dependencies),
	)
	r.emit(EventRegister, name, snap)
	return true, nil
}

// Unregister removes a domain. Unknown names are a benign no-op
// reported as false; removing a domain that others depend on is a
// contract violation reported as a *DependentsError.
func (r *Registry) Unregister(name string) (bool, error) {
	r.mu.Lock()
	rec, ok := r.records[name]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}

	var dependents []string
	for _, other := range r.records {
		if other.Name != name && slices.Contains(other.Dependencies, name) {
			dependents = append(dependents, other.Name)
		}
	}
	if len(dependents) > 0 {
		r.mu.Unlock()
		sort.Strings(dependents)
		return false, &DependentsError{Domain: name, Dependents: dependents}
	}

	snap := rec.snapshot()
	delete(r.records, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	r.mu.Unlock()

	r.logger.Info("domain unregistered", "domain", name)
	r.emit(EventUnregister, name, snap)
	return true, nil
}

// Get returns the processor for an enabled domain, or nil when the
// name is unknown or the domain is disabled. Callers that need to
// distinguish the two use GetRecord.
func (r *Registry) Get(name string) domain.Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[name]
	if !ok || !rec.Enabled {
		return nil
	}
	return rec.Processor
}

// GetRecord returns a copy of the full record regardless of the
// enabled flag, or nil for unknown names.
func (r *Registry) GetRecord(name string) *Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[name]
	if !ok {
		return nil
	}
	snap := rec.snapshot()
	return &snap
}

// ListDomains returns domain names in registration order.
func (r *Registry) ListDomains(enabledOnly bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if enabledOnly && !r.records[name].Enabled {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ListByPriority returns domain names sorted by priority, highest
// first. Equal priorities keep registration order.
func (r *Registry) ListByPriority(enabledOnly bool) []string {
	names := r.ListDomains(enabledOnly)

	r.mu.RLock()
	defer r.mu.RUnlock()
	sort.SliceStable(names, func(i, j int) bool {
		return r.records[names[i]].Priority > r.records[names[j]].Priority
	})
	return names
}

// Enable marks a domain eligible for Get and routing again. Returns
// false for unknown names.
func (r *Registry) Enable(name string) bool {
	return r.setEnabled(name, true)
}

// Disable hides a domain from Get and routing without losing its
// record, health, or dependency links. Returns false for unknown
// names.
func (r *Registry) Disable(name string) bool {
	return r.setEnabled(name, false)
}

func (r *Registry) setEnabled(name string, enabled bool) bool {
	r.mu.Lock()
	rec, ok := r.records[name]
	if !ok {
		r.mu.Unlock()
		return false
	}
	changed := rec.Enabled != enabled
	rec.Enabled = enabled
	r.mu.Unlock()

	if changed {
		r.logger.Info("domain toggled", "domain", name, "enabled", enabled)
	}
	return true
}

// SetHealth overrides a domain's health manually. This is how
// operators mark a domain degraded. Emits a health change event on
// transition. Returns false for unknown names.
func (r *Registry) SetHealth(name string, h Health) bool {
	r.mu.Lock()
	rec, ok := r.records[name]
	if !ok {
		r.mu.Unlock()
		return false
	}
	old := rec.Health
	rec.Health = h
	var snap Record
	if old != h {
		snap = rec.snapshot()
	}
	r.mu.Unlock()

	if old != h {
		r.logger.Info("domain health changed", "domain", name, "from", old, "to", h)
		r.emit(EventHealthChange, name, snap)
	}
	return true
}

// HealthCheck probes one domain and records the result. Probing an
// unknown name is an error. Probe errors are logged and downgraded to
// an unhealthy result, never returned. A health change event fires
// only when the value actually transitions.
func (r *Registry) HealthCheck(ctx context.Context, name string) (Health, error) {
	r.mu.RLock()
	rec, ok := r.records[name]
	if !ok {
		r.mu.RUnlock()
		return Unknown, fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}
	proc := rec.Processor
	r.mu.RUnlock()

	// Probe outside the lock; probes may be slow.
	health := Healthy
	if hc, ok := proc.(domain.HealthChecker); ok {
		healthy, err := hc.HealthCheck(ctx)
		switch {
		case err != nil:
			r.logger.Warn("health probe failed", "domain", name, "error", err)
			health = Unhealthy
		case !healthy:
			health = Unhealthy
		}
	}

	r.mu.Lock()
	rec, ok = r.records[name]
	if !ok {
		// Unregistered while probing.
		r.mu.Unlock()
		return health, nil
	}
	old := rec.Health
	rec.Health = health
	now := time.Now()
	rec.LastHealthCheck = &now
	changed := old != health
	var snap Record
	if changed {
		snap = rec.snapshot()
	}
	r.mu.Unlock()

	if changed {
		r.logger.Info("domain health changed", "domain", name, "from", old, "to", health)
		r.emit(EventHealthChange, name, snap)
	}
	return health, nil
}

// HealthCheckAll probes every registered domain sequentially,
// including disabled ones: disabled does not mean unmonitored. Stops
// early when the context is canceled and returns the partial result.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]Health {
	results := make(map[string]Health)
	for _, name := range r.ListDomains(false) {
		if ctx.Err() != nil {
			return results
		}
		h, err := r.HealthCheck(ctx, name)
		if err != nil {
			// Unregistered between listing and probing.
			continue
		}
		results[name] = h
	}
	return results
}
