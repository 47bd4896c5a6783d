package circuitbreaker

import (
	"log/slog"
	"maps"
	"sort"
	"sync"
)

// DefaultThreshold is the consecutive-failure count at which a circuit
// opens.
const DefaultThreshold = 5

// Tracker counts consecutive failures per domain name. A circuit is
// open once a domain reaches the threshold; one recorded success
// closes it again by deleting the counter outright. There are no
// timers and no half-open probing: recovery is an explicit success or
// reset.
type Tracker struct {
	mutex     sync.RWMutex
	failures  map[string]int
	threshold int
	logger    *slog.Logger
}

// NewTracker creates a tracker. Non-positive thresholds fall back to
// DefaultThreshold.
func NewTracker(threshold int, logger *slog.Logger) *Tracker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		failures:  make(map[string]int),
		threshold: threshold,
		logger:    logger,
	}
}

// RecordFailure increments the domain's counter and returns the new
// count.
func (t *Tracker) RecordFailure(name string) int {
	t.mutex.Lock()
	t.failures[name]++
	count := t.failures[name]
	t.mutex.Unlock()

	if count == t.threshold {
		t.logger.Warn("circuit opened", "domain", name, "failures", count)
	}
	return count
}

// RecordSuccess clears the domain's counter entirely. A single success
// closes an open circuit.
func (t *Tracker) RecordSuccess(name string) {
	t.mutex.Lock()
	count := t.failures[name]
	delete(t.failures, name)
	t.mutex.Unlock()

	if count >= t.threshold {
		t.logger.Info("circuit closed", "domain", name)
	}
}

// Open reports whether the domain's circuit is open.
func (t *Tracker) Open(name string) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.failures[name] >= t.threshold
}

// Failures returns the current counter for a domain, zero when none.
func (t *Tracker) Failures(name string) int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.failures[name]
}

// Threshold returns the configured opening threshold.
func (t *Tracker) Threshold() int {
	return t.threshold
}

// Reset clears a domain's counter manually and reports whether one
// existed.
func (t *Tracker) Reset(name string) bool {
	t.mutex.Lock()
	count, existed := t.failures[name]
	delete(t.failures, name)
	t.mutex.Unlock()

	if existed {
		t.logger.Info("circuit reset", "domain", name, "failures", count)
	}
	return existed
}

// OpenCircuits lists domains whose circuits are open, sorted by name.
func (t *Tracker) OpenCircuits() []string {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	var open []string
	for name, count := range t.failures {
		if count >= t.threshold {
			open = append(open, name)
		}
	}
	sort.Strings(open)
	return open
}

// Stats is a snapshot of the tracker for the stats endpoints.
type Stats struct {
	Threshold int            `json:"threshold"`
	Failures  map[string]int `json:"failures"`
	Open      []string       `json:"open,omitempty"`
}

// Stats snapshots counters and derived open circuits.
func (t *Tracker) Stats() Stats {
	open := t.OpenCircuits()

	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return Stats{
		Threshold: t.threshold,
		Failures:  maps.Clone(t.failures),
		Open:      open,
	}
}
