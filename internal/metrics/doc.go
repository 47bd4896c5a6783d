// Package metrics provides real-time metrics collection for the
// processing pipeline.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Input counts per input type
//   - Domain selection frequencies
//   - Processing durations with percentile calculations (P50, P90, P99)
//   - Failure counts per domain
//   - Average response confidence
//
// The collector runs in a dedicated goroutine and processes events
// without blocking the request path. Emit is non-blocking: when the
// buffer is full the event is dropped and counted, never queued.
//
// Example usage:
//
//	collector := metrics.NewCollector(1024, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.Event{
//		Type:       metrics.EventProcessingCompleted,
//		Domain:     "text_analysis",
//		Duration:   150 * time.Millisecond,
//		Confidence: 0.9,
//	})
//
//	snapshot := collector.Snapshot()
//
// Stop drains buffered events before shutting down so no observation
// is lost.
package metrics
