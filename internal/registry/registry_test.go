package registry_test

import (
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

// stubProcessor is a minimal processor for registry tests.
type stubProcessor struct {
	name string
}

func (s *stubProcessor) Name() string { return s.name }

func (s *stubProcessor) CanHandle(context.Context, *core.Input, *core.ProcessingContext) (bool, error) {
	return true, nil
}

func (s *stubProcessor) Analyze(context.Context, *core.Input, *core.ProcessingContext) (map[string]any, error) {
	return map[string]any{"analyzed": true}, nil
}

func (s *stubProcessor) Synthesize(_ context.Context, _ *core.Input, pctx *core.ProcessingContext, _ map[string]any) (*core.Response, error) {
	return core.BuildResponse(pctx, s.name, map[string]any{"message": "ok"}, 0.8), nil
}

// probeProcessor additionally answers health probes.
type probeProcessor struct {
	stubProcessor
	healthy  bool
	probeErr error
	probes   int
}

func (p *probeProcessor) HealthCheck(context.Context) (bool, error) {
	p.probes++
	return p.healthy, p.probeErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(GinkgoWriter, nil))
}

var _ = Describe("Registry", func() {
	var (
		reg *registry.Registry
		ctx context.Context
	)

	BeforeEach(func() {
		reg = registry.New(testLogger())
		ctx = context.Background()
	})

	Describe("Register", func() {
		It("should register a processor with defaults", func() {
			ok, err := reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			rec := reg.GetRecord("text")
			Expect(rec).NotTo(BeNil())
			Expect(rec.Version).To(Equal("1.0.0"))
			Expect(rec.Priority).To(Equal(0))
			Expect(rec.Enabled).To(BeTrue())
			Expect(rec.Health).To(Equal(registry.Unknown))
			Expect(rec.LastHealthCheck).To(BeNil())
			Expect(rec.RegisteredAt).NotTo(BeZero())
		})

		It("should keep explicit options", func() {
			ok, err := reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{
				Version:  "2.1.0",
				Priority: 7,
				Metadata: map[string]any{"lang": "es"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			rec := reg.GetRecord("text")
			Expect(rec.Version).To(Equal("2.1.0"))
			Expect(rec.Priority).To(Equal(7))
			Expect(rec.Metadata).To(HaveKeyWithValue("lang", "es"))
		})

		It("should refuse a duplicate name without an error", func() {
			ok, err := reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())

			ok, err = reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(ok).To(BeFalse())
			Expect(err).NotTo(HaveOccurred())
			Expect(reg.ListDomains(false)).To(HaveLen(1))
		})

		It("should reject a nil processor", func() {
			ok, err := reg.Register(nil, registry.RegisterOptions{})
			Expect(ok).To(BeFalse())
			Expect(err).To(MatchError(registry.ErrInvalidProcessor))
		})

		It("should raise a dependency error for unregistered dependencies", func() {
			ok, err := reg.Register(&stubProcessor{name: "dependent"}, registry.RegisterOptions{
				Dependencies: []string{"base", "other"},
			})
			Expect(ok).To(BeFalse())

			var depErr *registry.DependencyError
			Expect(errors.As(err, &depErr)).To(BeTrue())
			Expect(depErr.Missing).To(ConsistOf("base", "other"))
			Expect(reg.ListDomains(false)).To(BeEmpty())
		})

		It("should treat a self-dependency as missing", func() {
			_, err := reg.Register(&stubProcessor{name: "loop"}, registry.RegisterOptions{
				Dependencies: []string{"loop"},
			})
			var depErr *registry.DependencyError
			Expect(errors.As(err, &depErr)).To(BeTrue())
		})

		It("should accept dependencies that are registered", func() {
			_, err := reg.Register(&stubProcessor{name: "base"}, registry.RegisterOptions{})
			Expect(err).NotTo(HaveOccurred())

			ok, err := reg.Register(&stubProcessor{name: "dependent"}, registry.RegisterOptions{
				Dependencies: []string{"base"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(reg.GetRecord("dependent").Dependencies).To(ConsistOf("base"))
		})
	})

	Describe("Unregister", func() {
		It("should remove a registered domain", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})

			ok, err := reg.Unregister("text")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(reg.ListDomains(false)).To(BeEmpty())
		})

		It("should report false for unknown names", func() {
			ok, err := reg.Unregister("ghost")
			Expect(ok).To(BeFalse())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should block removal while dependents remain", func() {
			reg.Register(&stubProcessor{name: "base"}, registry.RegisterOptions{})
			reg.Register(&stubProcessor{name: "dependent"}, registry.RegisterOptions{
				Dependencies: []string{"base"},
			})

			ok, err := reg.Unregister("base")
			Expect(ok).To(BeFalse())

			var depErr *registry.DependentsError
			Expect(errors.As(err, &depErr)).To(BeTrue())
			Expect(depErr.Dependents).To(ConsistOf("dependent"))
			Expect(reg.GetRecord("base")).NotTo(BeNil())
		})

		It("should allow removal once dependents are gone", func() {
			reg.Register(&stubProcessor{name: "base"}, registry.RegisterOptions{})
			reg.Register(&stubProcessor{name: "dependent"}, registry.RegisterOptions{
				Dependencies: []string{"base"},
			})

			ok, err := reg.Unregister("dependent")
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())

			ok, err = reg.Unregister("base")
			Expect(ok).To(BeTrue())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should allow re-registration after removal", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			reg.Unregister("text")

			ok, err := reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{Version: "3.0.0"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(reg.GetRecord("text").Version).To(Equal("3.0.0"))
		})
	})

	Describe("Get", func() {
		It("should return the registered processor", func() {
			proc := &stubProcessor{name: "text"}
			reg.Register(proc, registry.RegisterOptions{})

			Expect(reg.Get("text")).To(BeIdenticalTo(proc))
		})

		It("should return nil for unknown names", func() {
			Expect(reg.Get("ghost")).To(BeNil())
		})

		It("should return nil for disabled domains", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			reg.Disable("text")

			Expect(reg.Get("text")).To(BeNil())
			Expect(reg.GetRecord("text")).NotTo(BeNil())
		})
	})

	Describe("GetRecord", func() {
		It("should hand out a copy, not registry state", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{
				Metadata: map[string]any{"k": "v"},
			})

			rec := reg.GetRecord("text")
			rec.Metadata["k"] = "mutated"
			rec.Dependencies = append(rec.Dependencies, "sneak")

			fresh := reg.GetRecord("text")
			Expect(fresh.Metadata).To(HaveKeyWithValue("k", "v"))
			Expect(fresh.Dependencies).To(BeEmpty())
		})
	})

	Describe("ListDomains", func() {
		It("should preserve registration order", func() {
			for _, name := range []string{"zeta", "alpha", "mid"} {
				reg.Register(&stubProcessor{name: name}, registry.RegisterOptions{})
			}
			Expect(reg.ListDomains(false)).To(Equal([]string{"zeta", "alpha", "mid"}))
		})

		It("should filter disabled domains without reordering", func() {
			for _, name := range []string{"a", "b", "c"} {
				reg.Register(&stubProcessor{name: name}, registry.RegisterOptions{})
			}
			reg.Disable("b")

			Expect(reg.ListDomains(true)).To(Equal([]string{"a", "c"}))
			Expect(reg.ListDomains(false)).To(Equal([]string{"a", "b", "c"}))
		})
	})

	Describe("ListByPriority", func() {
		It("should sort by priority descending", func() {
			reg.Register(&stubProcessor{name: "low"}, registry.RegisterOptions{Priority: 1})
			reg.Register(&stubProcessor{name: "high"}, registry.RegisterOptions{Priority: 10})
			reg.Register(&stubProcessor{name: "mid"}, registry.RegisterOptions{Priority: 5})

			Expect(reg.ListByPriority(true)).To(Equal([]string{"high", "mid", "low"}))
		})

		It("should keep registration order for equal priorities", func() {
			reg.Register(&stubProcessor{name: "first"}, registry.RegisterOptions{Priority: 5})
			reg.Register(&stubProcessor{name: "top"}, registry.RegisterOptions{Priority: 9})
			reg.Register(&stubProcessor{name: "second"}, registry.RegisterOptions{Priority: 5})

			Expect(reg.ListByPriority(true)).To(Equal([]string{"top", "first", "second"}))
		})

		It("should exclude disabled domains when asked", func() {
			reg.Register(&stubProcessor{name: "a"}, registry.RegisterOptions{Priority: 2})
			reg.Register(&stubProcessor{name: "b"}, registry.RegisterOptions{Priority: 8})
			reg.Disable("b")

			Expect(reg.ListByPriority(true)).To(Equal([]string{"a"}))
			Expect(reg.ListByPriority(false)).To(Equal([]string{"b", "a"}))
		})
	})

	Describe("Enable and Disable", func() {
		It("should toggle visibility", func() {
			proc := &stubProcessor{name: "text"}
			reg.Register(proc, registry.RegisterOptions{})

			Expect(reg.Disable("text")).To(BeTrue())
			Expect(reg.Get("text")).To(BeNil())

			Expect(reg.Enable("text")).To(BeTrue())
			Expect(reg.Get("text")).To(BeIdenticalTo(proc))
		})

		It("should report false for unknown names", func() {
			Expect(reg.Enable("ghost")).To(BeFalse())
			Expect(reg.Disable("ghost")).To(BeFalse())
		})

		It("should be idempotent", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(reg.Disable("text")).To(BeTrue())
			Expect(reg.Disable("text")).To(BeTrue())
			Expect(reg.GetRecord("text").Enabled).To(BeFalse())
		})
	})

	Describe("HealthCheck", func() {
		It("should presume health for processors without a probe", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})

			h, err := reg.HealthCheck(ctx, "text")
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(registry.Healthy))

			rec := reg.GetRecord("text")
			Expect(rec.Health).To(Equal(registry.Healthy))
			Expect(rec.LastHealthCheck).NotTo(BeNil())
		})

		It("should mark a failing probe unhealthy", func() {
			reg.Register(&probeProcessor{stubProcessor: stubProcessor{name: "sick"}, healthy: false}, registry.RegisterOptions{})

			h, err := reg.HealthCheck(ctx, "sick")
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(registry.Unhealthy))
		})

		It("should swallow probe errors as unhealthy", func() {
			reg.Register(&probeProcessor{
				stubProcessor: stubProcessor{name: "broken"},
				probeErr:      errors.New("probe exploded"),
			}, registry.RegisterOptions{})

			h, err := reg.HealthCheck(ctx, "broken")
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(registry.Unhealthy))
		})

		It("should error for unknown names", func() {
			h, err := reg.HealthCheck(ctx, "ghost")
			Expect(err).To(MatchError(registry.ErrUnknownDomain))
			Expect(h).To(Equal(registry.Unknown))
		})

		It("should probe disabled domains too", func() {
			proc := &probeProcessor{stubProcessor: stubProcessor{name: "dark"}, healthy: true}
			reg.Register(proc, registry.RegisterOptions{})
			reg.Disable("dark")

			h, err := reg.HealthCheck(ctx, "dark")
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(registry.Healthy))
			Expect(proc.probes).To(Equal(1))
		})
	})

	Describe("HealthCheckAll", func() {
		It("should probe every domain sequentially", func() {
			reg.Register(&stubProcessor{name: "a"}, registry.RegisterOptions{})
			reg.Register(&probeProcessor{stubProcessor: stubProcessor{name: "b"}, healthy: false}, registry.RegisterOptions{})

			results := reg.HealthCheckAll(ctx)
			Expect(results).To(HaveLen(2))
			Expect(results["a"]).To(Equal(registry.Healthy))
			Expect(results["b"]).To(Equal(registry.Unhealthy))
		})

		It("should stop early on cancellation", func() {
			reg.Register(&stubProcessor{name: "a"}, registry.RegisterOptions{})

			canceled, cancel := context.WithCancel(ctx)
			cancel()

			Expect(reg.HealthCheckAll(canceled)).To(BeEmpty())
		})
	})

	Describe("SetHealth", func() {
		It("should override health manually", func() {
			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})

			Expect(reg.SetHealth("text", registry.Degraded)).To(BeTrue())
			Expect(reg.GetRecord("text").Health).To(Equal(registry.Degraded))
		})

		It("should report false for unknown names", func() {
			Expect(reg.SetHealth("ghost", registry.Healthy)).To(BeFalse())
		})
	})

	Describe("OnEvent", func() {
		It("should notify on registration", func() {
			var events []string
			err := reg.OnEvent(registry.EventRegister, func(name string, rec registry.Record) {
				events = append(events, name)
				Expect(rec.Health).To(Equal(registry.Unknown))
			})
			Expect(err).NotTo(HaveOccurred())

			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(events).To(Equal([]string{"text"}))
		})

		It("should notify on unregistration", func() {
			var events []string
			reg.OnEvent(registry.EventUnregister, func(name string, _ registry.Record) {
				events = append(events, name)
			})

			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			reg.Unregister("text")
			Expect(events).To(Equal([]string{"text"}))
		})

		It("should notify health changes only on transitions", func() {
			proc := &probeProcessor{stubProcessor: stubProcessor{name: "text"}, healthy: true}
			reg.Register(proc, registry.RegisterOptions{})

			var transitions []registry.Health
			reg.OnEvent(registry.EventHealthChange, func(_ string, rec registry.Record) {
				transitions = append(transitions, rec.Health)
			})

			reg.HealthCheck(ctx, "text")
			reg.HealthCheck(ctx, "text")
			Expect(transitions).To(Equal([]registry.Health{registry.Healthy}))

			proc.healthy = false
			reg.HealthCheck(ctx, "text")
			Expect(transitions).To(Equal([]registry.Health{registry.Healthy, registry.Unhealthy}))
		})

		It("should reject unknown event kinds", func() {
			err := reg.OnEvent("rebooted", func(string, registry.Record) {})
			Expect(err).To(MatchError(registry.ErrUnknownEvent))
		})

		It("should survive a panicking handler", func() {
			var reached bool
			reg.OnEvent(registry.EventRegister, func(string, registry.Record) {
				panic("observer bug")
			})
			reg.OnEvent(registry.EventRegister, func(string, registry.Record) {
				reached = true
			})

			ok, err := reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(reached).To(BeTrue())
		})

		It("should run a handler once per subscription", func() {
			count := 0
			handler := func(string, registry.Record) { count++ }
			reg.OnEvent(registry.EventRegister, handler)
			reg.OnEvent(registry.EventRegister, handler)

			reg.Register(&stubProcessor{name: "text"}, registry.RegisterOptions{})
			Expect(count).To(Equal(2))
		})
	})

	Describe("Stats", func() {
		It("should summarize an empty registry", func() {
			stats := reg.Stats()
			Expect(stats.TotalDomains).To(BeZero())
			Expect(stats.EnabledDomains).To(BeZero())
			Expect(stats.HealthCounts).To(HaveKeyWithValue(registry.Unknown, 0))
		})

		It("should count domains, enabled flags, and health buckets", func() {
			reg.Register(&stubProcessor{name: "a"}, registry.RegisterOptions{Version: "1.0.0", Priority: 5})
			reg.Register(&stubProcessor{name: "b"}, registry.RegisterOptions{Version: "2.0.0", Priority: 3})
			reg.Disable("b")
			reg.HealthCheck(ctx, "a")

			stats := reg.Stats()
			Expect(stats.TotalDomains).To(Equal(2))
			Expect(stats.EnabledDomains).To(Equal(1))
			Expect(stats.HealthCounts[registry.Healthy]).To(Equal(1))
			Expect(stats.HealthCounts[registry.Unknown]).To(Equal(1))

			Expect(stats.Domains["a"].Version).To(Equal("1.0.0"))
			Expect(stats.Domains["a"].Priority).To(Equal(5))
			Expect(stats.Domains["b"].Enabled).To(BeFalse())
		})
	})
})
