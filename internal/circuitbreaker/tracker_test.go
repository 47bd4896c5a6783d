package circuitbreaker_test

import (
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cognitive-core/internal/circuitbreaker"
)

var _ = Describe("Tracker", func() {
	var tracker *circuitbreaker.Tracker

	BeforeEach(func() {
		tracker = circuitbreaker.NewTracker(3, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
	})

	It("should start with all circuits closed", func() {
		Expect(tracker.Open("text")).To(BeFalse())
		Expect(tracker.Failures("text")).To(BeZero())
		Expect(tracker.OpenCircuits()).To(BeEmpty())
	})

	It("should open a circuit at the threshold", func() {
		tracker.RecordFailure("text")
		tracker.RecordFailure("text")
		Expect(tracker.Open("text")).To(BeFalse())

		Expect(tracker.RecordFailure("text")).To(Equal(3))
		Expect(tracker.Open("text")).To(BeTrue())
		Expect(tracker.OpenCircuits()).To(Equal([]string{"text"}))
	})

	It("should stay open past the threshold", func() {
		for i := 0; i < 5; i++ {
			tracker.RecordFailure("text")
		}
		Expect(tracker.Open("text")).To(BeTrue())
		Expect(tracker.Failures("text")).To(Equal(5))
	})

	It("should close on a single success", func() {
		for i := 0; i < 4; i++ {
			tracker.RecordFailure("text")
		}
		Expect(tracker.Open("text")).To(BeTrue())

		tracker.RecordSuccess("text")
		Expect(tracker.Open("text")).To(BeFalse())
		Expect(tracker.Failures("text")).To(BeZero())
	})

	It("should clear partial counts on success, not decrement", func() {
		tracker.RecordFailure("text")
		tracker.RecordFailure("text")
		tracker.RecordSuccess("text")

		Expect(tracker.Failures("text")).To(BeZero())
	})

	It("should track domains independently", func() {
		tracker.RecordFailure("text")
		tracker.RecordFailure("text")
		tracker.RecordFailure("text")
		tracker.RecordFailure("events")

		Expect(tracker.Open("text")).To(BeTrue())
		Expect(tracker.Open("events")).To(BeFalse())
	})

	It("should reset manually", func() {
		tracker.RecordFailure("text")
		Expect(tracker.Reset("text")).To(BeTrue())
		Expect(tracker.Failures("text")).To(BeZero())

		Expect(tracker.Reset("text")).To(BeFalse())
		Expect(tracker.Reset("never-seen")).To(BeFalse())
	})

	It("should fall back to the default threshold", func() {
		t := circuitbreaker.NewTracker(0, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		Expect(t.Threshold()).To(Equal(circuitbreaker.DefaultThreshold))
	})

	It("should snapshot stats", func() {
		tracker.RecordFailure("text")
		tracker.RecordFailure("events")
		tracker.RecordFailure("events")
		tracker.RecordFailure("events")

		stats := tracker.Stats()
		Expect(stats.Threshold).To(Equal(3))
		Expect(stats.Failures).To(HaveKeyWithValue("text", 1))
		Expect(stats.Failures).To(HaveKeyWithValue("events", 3))
		Expect(stats.Open).To(Equal([]string{"events"}))

		// The snapshot is detached from live state.
		stats.Failures["text"] = 99
		Expect(tracker.Failures("text")).To(Equal(1))
	})

	It("should be safe under concurrent use", func() {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					tracker.RecordFailure("hot")
					tracker.Open("hot")
					tracker.RecordSuccess("hot")
				}
			}()
		}
		wg.Wait()
		Expect(tracker.Failures("hot")).To(BeNumerically(">=", 0))
	})
})
