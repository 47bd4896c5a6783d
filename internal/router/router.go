package router

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/angeloszaimis/cognitive-core/internal/circuitbreaker"
	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/domain"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
	"github.com/angeloszaimis/cognitive-core/internal/strategy"
)

// ErrNilInput is returned when routing is attempted without an input.
var ErrNilInput = errors.New("router: nil input")

// Decision is the outcome of a routing call: the selected domain, its
// processor, and the score that won.
type Decision struct {
	Domain    string                `json:"domain"`
	Processor domain.Processor      `json:"-"`
	Score     strategy.RoutingScore `json:"score"`
}

// Router selects the best-scoring registered domain for an input.
// Routing itself has no side effects: it never mutates the registry,
// the failure counters, or the processing context. Success and failure
// accounting is the caller's responsibility via RecordSuccess and
// RecordFailure.
type Router struct {
	registry *registry.Registry
	strategy strategy.RoutingStrategy
	tracker  *circuitbreaker.Tracker
	logger   *slog.Logger

	mu        sync.RWMutex
	fallbacks map[string][]string
}

// New builds a router over reg. A nil strat falls back to the default
// scoring strategy; a non-positive threshold falls back to the tracker
// default of five consecutive failures.
func New(reg *registry.Registry, strat strategy.RoutingStrategy, threshold int, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if strat == nil {
		strat = strategy.NewDefault(logger)
	}
	return &Router{
		registry:  reg,
		strategy:  strat,
		tracker:   circuitbreaker.NewTracker(threshold, logger),
		logger:    logger,
		fallbacks: make(map[string][]string),
	}
}

// Route selects the most appropriate domain for the input, skipping
// excluded and circuit-broken domains. Returns nil when no enabled
// domain can handle the input; that is an expected outcome, not an
// error. Ties keep registration order: the first maximum wins.
func (r *Router) Route(ctx context.Context, in *core.Input, pctx *core.ProcessingContext, exclude []string) (*Decision, error) {
	if in == nil {
		return nil, ErrNilInput
	}

	candidates := r.registry.ListDomains(true)
	candidates = slices.DeleteFunc(candidates, func(name string) bool {
		return slices.Contains(exclude, name) || r.tracker.Open(name)
	})
	if len(candidates) == 0 {
		r.logger.Debug("no routing candidates", "input", in.ID, "excluded", len(exclude))
		return nil, nil
	}

	var best *Decision
	for _, name := range candidates {
		rec := r.registry.GetRecord(name)
		if rec == nil || !rec.Enabled {
			continue
		}

		score := r.strategy.Score(ctx, rec, in, pctx)
		r.logger.Debug("candidate scored",
			"domain", name,
			"score", score.Score,
			"can_handle", score.CanHandle,
		)
		if !score.CanHandle {
			continue
		}

		if best == nil || score.Score > best.Score.Score {
			best = &Decision{Domain: name, Processor: rec.Processor, Score: score}
		}
	}

	if best == nil {
		r.logger.Debug("no domain can handle input", "input", in.ID, "type", in.Type)
		return nil, nil
	}

	r.logger.Info("input routed",
		"input", in.ID,
		"type", in.Type,
		"domain", best.Domain,
		"score", best.Score.Score,
	)
	return best, nil
}

// RouteWithFallback routes normally and reports the winner's declared
// fallback chain. The chain is informational clearance for the caller:
// the router never walks it on its own.
func (r *Router) RouteWithFallback(ctx context.Context, in *core.Input, pctx *core.ProcessingContext) (*Decision, error) {
	decision, err := r.Route(ctx, in, pctx, nil)
	if err != nil {
		return nil, err
	}

	if decision != nil {
		if chain := r.FallbackChain(decision.Domain); len(chain) > 0 {
			r.logger.Debug("winner has fallback chain",
				"domain", decision.Domain,
				"chain", chain,
			)
		}
		return decision, nil
	}

	r.logger.Warn("routing failed, no fallback attempted", "input", in.ID)
	return nil, nil
}

// RouteAll scores every enabled, circuit-closed domain that can handle
// the input, sorted by score descending. Ties keep registration order.
func (r *Router) RouteAll(ctx context.Context, in *core.Input, pctx *core.ProcessingContext) ([]strategy.RoutingScore, error) {
	if in == nil {
		return nil, ErrNilInput
	}

	var scores []strategy.RoutingScore
	for _, name := range r.registry.ListDomains(true) {
		if r.tracker.Open(name) {
			continue
		}
		rec := r.registry.GetRecord(name)
		if rec == nil || !rec.Enabled {
			continue
		}

		score := r.strategy.Score(ctx, rec, in, pctx)
		if score.CanHandle {
			scores = append(scores, score)
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores, nil
}

// SetFallbackChain declares the recovery order for a domain. Chains
// are not validated against the registry: domains may come and go
// independently.
func (r *Router) SetFallbackChain(primary string, chain []string) {
	r.mu.Lock()
	r.fallbacks[primary] = append([]string(nil), chain...)
	r.mu.Unlock()

	r.logger.Info("fallback chain set", "domain", primary, "chain", chain)
}

// FallbackChain returns the declared chain for a domain, empty when
// none was set.
func (r *Router) FallbackChain(primary string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.fallbacks[primary]...)
}

// RecordFailure counts one failure against a domain and returns the
// new count. At the threshold the domain's circuit opens and it drops
// out of candidacy.
func (r *Router) RecordFailure(name string) int {
	return r.tracker.RecordFailure(name)
}

// RecordSuccess clears a domain's failure count.
func (r *Router) RecordSuccess(name string) {
	r.tracker.RecordSuccess(name)
}

// Threshold returns the failure count at which circuits open.
func (r *Router) Threshold() int {
	return r.tracker.Threshold()
}

// ResetCircuitBreaker manually clears a domain's failure count and
// reports whether there was one.
func (r *Router) ResetCircuitBreaker(name string) bool {
	return r.tracker.Reset(name)
}

// Stats is a point-in-time summary of the router.
type Stats struct {
	Strategy       string               `json:"strategy"`
	FallbackChains map[string][]string  `json:"fallback_chains"`
	CircuitBreaker circuitbreaker.Stats `json:"circuit_breaker"`
}

// Stats snapshots fallback chains and circuit breaker state.
func (r *Router) Stats() Stats {
	r.mu.RLock()
	chains := make(map[string][]string, len(r.fallbacks))
	for k, v := range r.fallbacks {
		chains[k] = append([]string(nil), v...)
	}
	r.mu.RUnlock()

	return Stats{
		Strategy:       r.strategy.Name(),
		FallbackChains: chains,
		CircuitBreaker: r.tracker.Stats(),
	}
}
