package metrics_test

import (
	"context"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
		collector.Stop()
	})

	Describe("event processing", func() {
		It("should process input received events", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{
				Type:      metrics.EventInputReceived,
				InputType: core.InputText,
			})

			Eventually(func() int64 {
				return collector.Snapshot().Events[metrics.EventInputReceived]
			}).Should(Equal(int64(1)))
			Expect(collector.Snapshot().InputTypes["text"]).To(Equal(int64(1)))
		})

		It("should process domain selections", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{
				Type:   metrics.EventDomainSelected,
				Domain: "text_analysis",
			})

			Eventually(func() int64 {
				return collector.Snapshot().Selections["text_analysis"]
			}).Should(Equal(int64(1)))
		})

		It("should process completions with duration and confidence", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{
				Type:       metrics.EventProcessingCompleted,
				Domain:     "text_analysis",
				Duration:   100 * time.Millisecond,
				Confidence: 0.8,
			})

			Eventually(func() int {
				return collector.Snapshot().Durations.Samples
			}).Should(Equal(1))

			snap := collector.Snapshot()
			Expect(snap.Durations.Avg).To(Equal(100 * time.Millisecond))
			Expect(snap.AvgConfidence).To(BeNumerically("~", 0.8, 0.001))
		})

		It("should process failures", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{
				Type:   metrics.EventProcessingFailed,
				Domain: "electronics_repair",
			})

			Eventually(func() int64 {
				return collector.Snapshot().Failures["electronics_repair"]
			}).Should(Equal(int64(1)))
		})

		It("should process a sequence of pipeline events", func() {
			collector.Start(ctx)

			events := []metrics.Event{
				{Type: metrics.EventInputReceived, InputType: core.InputEvent},
				{Type: metrics.EventDomainSelected, Domain: "event_processing"},
				{Type: metrics.EventProcessingCompleted, Domain: "event_processing", Duration: 50 * time.Millisecond, Confidence: 0.7},
			}
			for _, e := range events {
				collector.Emit(e)
			}

			Eventually(func() int64 {
				return collector.Snapshot().Events[metrics.EventProcessingCompleted]
			}).Should(Equal(int64(1)))

			snap := collector.Snapshot()
			Expect(snap.Events[metrics.EventInputReceived]).To(Equal(int64(1)))
			Expect(snap.Selections["event_processing"]).To(Equal(int64(1)))
			Expect(snap.Durations.Avg).To(Equal(50 * time.Millisecond))
		})
	})

	Describe("Emit", func() {
		It("should drop events when the buffer is full and count them", func() {
			// Consumer not started: the buffer fills and overflow drops.
			small := metrics.NewCollector(2, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
			for i := 0; i < 5; i++ {
				small.Emit(metrics.Event{Type: metrics.EventInputReceived})
			}

			Expect(small.Snapshot().DroppedEvents).To(Equal(int64(3)))
		})

		It("should fill in a zero timestamp", func() {
			collector.Start(ctx)

			collector.Emit(metrics.Event{Type: metrics.EventCircuitOpened})

			Eventually(func() int64 {
				return collector.Snapshot().Events[metrics.EventCircuitOpened]
			}).Should(Equal(int64(1)))
		})
	})

	Describe("Stop", func() {
		It("should drain buffered events before stopping", func() {
			collector.Start(ctx)

			for i := 0; i < 5; i++ {
				collector.Emit(metrics.Event{Type: metrics.EventInputReceived})
			}
			collector.Stop()

			Expect(collector.Snapshot().Events[metrics.EventInputReceived]).To(Equal(int64(5)))
		})

		It("should be safe to call without Start", func() {
			fresh := metrics.NewCollector(10, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
			fresh.Stop()
		})
	})

	Describe("Handler", func() {
		It("should return a handler func", func() {
			Expect(collector.Handler()).NotTo(BeNil())
		})
	})
})
