package healthcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

const (
	defaultInterval   = 60 * time.Second
	defaultRetryDelay = 5 * time.Second
)

// Monitor periodically probes all registered domains. Start and Stop
// are safe to call from any goroutine; Start while running and Stop
// while stopped are no-ops.
type Monitor struct {
	registry   *registry.Registry
	interval   time.Duration
	retryDelay time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor builds a monitor over reg. Non-positive durations fall
// back to the defaults (60s interval, 5s retry delay).
func NewMonitor(reg *registry.Registry, interval, retryDelay time.Duration, logger *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		registry:   reg,
		interval:   interval,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Start launches the monitoring loop. The first probe pass runs
// immediately.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)

	m.logger.Info("health monitoring started", "interval", m.interval)
}

// Stop cancels the loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	m.logger.Info("health monitoring stopped")
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-timer.C:
			results := m.registry.HealthCheckAll(ctx)
			if len(results) == 0 {
				// Nothing to watch yet; look again sooner.
				timer.Reset(m.retryDelay)
				continue
			}
			timer.Reset(m.interval)
		}
	}
}
