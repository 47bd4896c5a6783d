package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/angeloszaimis/cognitive-core/internal/core"
)

// DefaultBufferSize is the event channel capacity when none is given.
const DefaultBufferSize = 1024

// EventType classifies a processing event.
type EventType string

const (
	EventInputReceived       EventType = "input_received"
	EventDomainSelected      EventType = "domain_selected"
	EventProcessingCompleted EventType = "processing_completed"
	EventProcessingFailed    EventType = "processing_failed"
	EventHealthChanged       EventType = "health_changed"
	EventCircuitOpened       EventType = "circuit_opened"
)

// Event is one observation emitted by the pipeline.
type Event struct {
	Type       EventType
	Domain     string
	InputType  core.InputType
	Duration   time.Duration
	Confidence float64
	Timestamp  time.Time
}

// Collector consumes processing events off a buffered channel in a
// single goroutine. Emit never blocks the pipeline: events that do not
// fit the buffer are dropped and counted.
type Collector struct {
	events  chan Event
	metrics *Metrics
	logger  *slog.Logger
	dropped atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCollector creates a collector. Non-positive buffer sizes fall back
// to DefaultBufferSize.
func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		events:  make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Start launches the consumer goroutine. Calling Start twice is a
// no-op.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Stop shuts the consumer down, draining buffered events first.
func (c *Collector) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-c.done
}

// Emit offers an event to the collector without blocking. A zero
// timestamp is filled in.
func (c *Collector) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	select {
	case c.events <- e:
	default:
		c.dropped.Add(1)
	}
}

// Snapshot returns the current aggregate including the drop count.
func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot(c.dropped.Load())
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("metrics collector started")
	defer c.logger.Info("metrics collector stopped")
	defer close(c.done)

	for {
		select {
		case e := <-c.events:
			c.processEvent(e)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(e Event) {
	switch e.Type {
	case EventInputReceived:
		c.metrics.RecordInput(string(e.InputType))

	case EventDomainSelected:
		c.metrics.RecordSelection(e.Domain)

	case EventProcessingCompleted:
		c.metrics.RecordCompletion(e.Duration, e.Confidence)

	case EventProcessingFailed:
		c.metrics.RecordFailure(e.Domain)

	case EventHealthChanged, EventCircuitOpened:
		c.metrics.RecordEvent(e.Type)
	}
}

// drain empties whatever is buffered at shutdown so no observation is
// lost.
func (c *Collector) drain() {
	for {
		select {
		case e := <-c.events:
			c.processEvent(e)
		default:
			return
		}
	}
}
