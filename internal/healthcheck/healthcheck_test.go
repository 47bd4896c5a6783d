package healthcheck_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/healthcheck"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

// flakyProcessor reports the health stored in an atomic flag and
// counts probes.
type flakyProcessor struct {
	name    string
	healthy atomic.Bool
	probes  atomic.Int64
}

func (f *flakyProcessor) Name() string { return f.name }

func (f *flakyProcessor) CanHandle(context.Context, *core.Input, *core.ProcessingContext) (bool, error) {
	return true, nil
}

func (f *flakyProcessor) Analyze(context.Context, *core.Input, *core.ProcessingContext) (map[string]any, error) {
	return nil, nil
}

func (f *flakyProcessor) Synthesize(_ context.Context, _ *core.Input, pctx *core.ProcessingContext, _ map[string]any) (*core.Response, error) {
	return core.BuildResponse(pctx, f.name, nil, 0.5), nil
}

func (f *flakyProcessor) HealthCheck(context.Context) (bool, error) {
	f.probes.Add(1)
	return f.healthy.Load(), nil
}

var _ = Describe("Monitor", func() {
	var (
		reg  *registry.Registry
		mon  *healthcheck.Monitor
		proc *flakyProcessor
	)

	BeforeEach(func() {
		reg = registry.New(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		proc = &flakyProcessor{name: "electronics"}
		proc.healthy.Store(true)

		_, err := reg.Register(proc, registry.RegisterOptions{})
		Expect(err).NotTo(HaveOccurred())

		mon = healthcheck.NewMonitor(reg, 20*time.Millisecond, 10*time.Millisecond,
			slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
	})

	AfterEach(func() {
		mon.Stop()
	})

	It("should probe immediately on start", func() {
		mon.Start()

		Eventually(func() registry.Health {
			return reg.GetRecord("electronics").Health
		}).Should(Equal(registry.Healthy))
	})

	It("should observe health transitions over time", func() {
		mon.Start()

		Eventually(func() registry.Health {
			return reg.GetRecord("electronics").Health
		}).Should(Equal(registry.Healthy))

		proc.healthy.Store(false)

		Eventually(func() registry.Health {
			return reg.GetRecord("electronics").Health
		}).Should(Equal(registry.Unhealthy))
	})

	It("should keep probing on the interval", func() {
		mon.Start()

		Eventually(func() int64 {
			return proc.probes.Load()
		}).Should(BeNumerically(">=", 3))
	})

	It("should stop promptly and probe no further", func() {
		mon.Start()
		Eventually(func() int64 { return proc.probes.Load() }).Should(BeNumerically(">", 0))

		mon.Stop()
		after := proc.probes.Load()

		Consistently(func() int64 {
			return proc.probes.Load()
		}, 100*time.Millisecond).Should(Equal(after))
	})

	It("should treat repeated starts and stops as no-ops", func() {
		mon.Start()
		mon.Start()
		Expect(mon.Running()).To(BeTrue())

		mon.Stop()
		mon.Stop()
		Expect(mon.Running()).To(BeFalse())
	})

	It("should idle on the retry delay while the registry is empty", func() {
		empty := registry.New(slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		idle := healthcheck.NewMonitor(empty, time.Hour, 5*time.Millisecond,
			slog.New(slog.NewTextHandler(GinkgoWriter, nil)))
		idle.Start()
		defer idle.Stop()

		late := &flakyProcessor{name: "late"}
		late.healthy.Store(true)
		_, err := empty.Register(late, registry.RegisterOptions{})
		Expect(err).NotTo(HaveOccurred())

		// Picked up by a retry pass, not the hour-long interval.
		Eventually(func() int64 {
			return late.probes.Load()
		}).Should(BeNumerically(">", 0))
	})
})
