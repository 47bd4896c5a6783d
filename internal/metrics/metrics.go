package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxDurations bounds the window of recent processing durations used
// for percentile calculations.
const maxDurations = 1000

// Metrics is the thread-safe aggregate behind the collector.
type Metrics struct {
	mutex         sync.RWMutex
	events        map[EventType]int64
	inputTypes    map[string]int64
	selections    map[string]int64
	failures      map[string]int64
	durations     []time.Duration
	confidenceSum float64
	confidenceN   int64
	startTime     time.Time
}

// NewMetrics creates an empty aggregate.
func NewMetrics() *Metrics {
	return &Metrics{
		events:     make(map[EventType]int64),
		inputTypes: make(map[string]int64),
		selections: make(map[string]int64),
		failures:   make(map[string]int64),
		startTime:  time.Now(),
	}
}

// Snapshot is a point-in-time view of the collected metrics.
type Snapshot struct {
	Uptime        time.Duration        `json:"uptime"`
	Events        map[EventType]int64  `json:"events"`
	InputTypes    map[string]int64     `json:"input_types,omitempty"`
	Selections    map[string]int64     `json:"selections,omitempty"`
	Failures      map[string]int64     `json:"failures,omitempty"`
	AvgConfidence float64              `json:"avg_confidence"`
	Durations     DurationStats        `json:"durations"`
	DroppedEvents int64                `json:"dropped_events"`
}

// DurationStats summarizes recent processing durations.
type DurationStats struct {
	Samples int           `json:"samples"`
	Avg     time.Duration `json:"avg"`
	P50     time.Duration `json:"p50"`
	P90     time.Duration `json:"p90"`
	P99     time.Duration `json:"p99"`
}

// RecordInput counts one received input by type.
func (m *Metrics) RecordInput(inputType string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events[EventInputReceived]++
	if inputType != "" {
		m.inputTypes[inputType]++
	}
}

// RecordSelection counts one routing decision for a domain.
func (m *Metrics) RecordSelection(domain string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events[EventDomainSelected]++
	m.selections[domain]++
}

// RecordCompletion records one successful pipeline run.
func (m *Metrics) RecordCompletion(duration time.Duration, confidence float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events[EventProcessingCompleted]++

	m.durations = append(m.durations, duration)
	if len(m.durations) > maxDurations {
		m.durations = m.durations[1:]
	}

	m.confidenceSum += confidence
	m.confidenceN++
}

// RecordFailure counts one failed pipeline run for a domain. Failures
// before routing are recorded under an empty domain.
func (m *Metrics) RecordFailure(domain string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events[EventProcessingFailed]++
	m.failures[domain]++
}

// RecordEvent counts an event type with no extra aggregation.
func (m *Metrics) RecordEvent(t EventType) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.events[t]++
}

// Snapshot copies the aggregate for reporting.
func (m *Metrics) Snapshot(dropped int64) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:        time.Since(m.startTime),
		Events:        make(map[EventType]int64, len(m.events)),
		InputTypes:    make(map[string]int64, len(m.inputTypes)),
		Selections:    make(map[string]int64, len(m.selections)),
		Failures:      make(map[string]int64, len(m.failures)),
		DroppedEvents: dropped,
	}
	for k, v := range m.events {
		snap.Events[k] = v
	}
	for k, v := range m.inputTypes {
		snap.InputTypes[k] = v
	}
	for k, v := range m.selections {
		snap.Selections[k] = v
	}
	for k, v := range m.failures {
		snap.Failures[k] = v
	}

	if m.confidenceN > 0 {
		snap.AvgConfidence = m.confidenceSum / float64(m.confidenceN)
	}

	if len(m.durations) > 0 {
		sorted := make([]time.Duration, len(m.durations))
		copy(sorted, m.durations)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		snap.Durations = DurationStats{
			Samples: len(sorted),
			Avg:     average(sorted),
			P50:     percentile(sorted, 0.50),
			P90:     percentile(sorted, 0.90),
			P99:     percentile(sorted, 0.99),
		}
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
