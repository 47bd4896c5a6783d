package strategy_test

import (
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
	"github.com/angeloszaimis/cognitive-core/internal/strategy"
)

type scoredProcessor struct {
	name      string
	canHandle bool
	err       error
}

func (s *scoredProcessor) Name() string { return s.name }

func (s *scoredProcessor) CanHandle(context.Context, *core.Input, *core.ProcessingContext) (bool, error) {
	return s.canHandle, s.err
}

func (s *scoredProcessor) Analyze(context.Context, *core.Input, *core.ProcessingContext) (map[string]any, error) {
	return nil, nil
}

func (s *scoredProcessor) Synthesize(_ context.Context, _ *core.Input, pctx *core.ProcessingContext, _ map[string]any) (*core.Response, error) {
	return core.BuildResponse(pctx, s.name, nil, 0.5), nil
}

func record(canHandle bool, err error, priority int, health registry.Health) *registry.Record {
	return &registry.Record{
		Name:      "candidate",
		Processor: &scoredProcessor{name: "candidate", canHandle: canHandle, err: err},
		Priority:  priority,
		Health:    health,
		Enabled:   true,
	}
}

var _ = Describe("Default", func() {
	var (
		strat *strategy.Default
		ctx   context.Context
	)

	BeforeEach(func() {
		strat = strategy.NewDefault(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		ctx = context.Background()
	})

	DescribeTable("scoring",
		func(canHandle bool, probeErr error, priority int, health registry.Health, want float64, wantCanHandle bool) {
			score := strat.Score(ctx, record(canHandle, probeErr, priority, health), nil, nil)
			Expect(score.Score).To(BeNumerically("~", want, 1e-9))
			Expect(score.CanHandle).To(Equal(wantCanHandle))
		},
		Entry("handling, priority 10, healthy", true, nil, 10, registry.Healthy, 0.8, true),
		Entry("not handling, priority 10, healthy", false, nil, 10, registry.Healthy, 0.3, false),
		Entry("handling, priority 0, unknown", true, nil, 0, registry.Unknown, 0.45, true),
		Entry("handling, priority 0, healthy", true, nil, 0, registry.Healthy, 0.5, true),
		Entry("handling, priority 5, healthy", true, nil, 5, registry.Healthy, 0.65, true),
		Entry("priority bonus caps at 10", true, nil, 25, registry.Healthy, 0.8, true),
		Entry("handling, priority 10, degraded", true, nil, 10, registry.Degraded, 0.7, true),
		Entry("handling, priority 10, unhealthy", true, nil, 10, registry.Unhealthy, 0.6, true),
		Entry("handling, priority 0, unhealthy", true, nil, 0, registry.Unhealthy, 0.3, true),
		Entry("not handling, priority 0, unhealthy clamps to zero", false, nil, 0, registry.Unhealthy, 0.0, false),
		Entry("not handling, priority 0, healthy", false, nil, 0, registry.Healthy, 0.0, false),
		Entry("negative priority subtracts", true, nil, -5, registry.Healthy, 0.35, true),
		Entry("probe error counts as not handling", true, errors.New("probe blew up"), 10, registry.Healthy, 0.3, false),
	)

	It("should report the score breakdown", func() {
		score := strat.Score(ctx, record(true, nil, 10, registry.Unknown), nil, nil)

		Expect(score.Domain).To(Equal("candidate"))
		Expect(score.Priority).To(Equal(10))
		Expect(score.Health).To(Equal(registry.Unknown))
		Expect(score.Detail).To(HaveKeyWithValue("priority_bonus", BeNumerically("~", 0.3, 1e-9)))
		Expect(score.Detail).To(HaveKeyWithValue("health_penalty", BeNumerically("~", 0.05, 1e-9)))
	})

	It("should name itself", func() {
		Expect(strat.Name()).To(Equal("default"))
	})
})
