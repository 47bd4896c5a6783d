package strategy

import (
	"context"
	"log/slog"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

const (
	// handleBase is the score a domain earns for being able to handle
	// the input at all.
	handleBase = 0.5

	// bonusCap limits the priority contribution: priority 10 and
	// beyond all earn the full bonus.
	bonusCap = 0.3
)

// Default is the shipped scoring strategy: capability dominates,
// priority differentiates, poor health discounts.
type Default struct {
	logger *slog.Logger
}

// NewDefault builds the default strategy.
func NewDefault(logger *slog.Logger) *Default {
	if logger == nil {
		logger = slog.Default()
	}
	return &Default{logger: logger}
}

// Name identifies the strategy in logs and stats.
func (d *Default) Name() string { return "default" }

// Score evaluates one candidate. A failing can-handle probe counts as
// "cannot handle": the error is logged, never propagated.
func (d *Default) Score(ctx context.Context, rec *registry.Record, in *core.Input, pctx *core.ProcessingContext) RoutingScore {
	canHandle, err := rec.Processor.CanHandle(ctx, in, pctx)
	if err != nil {
		d.logger.Warn("can-handle probe failed",
			"domain", rec.Name,
			"error", err,
		)
		canHandle = false
	}

	base := 0.0
	if canHandle {
		base = handleBase
	}

	bonus := float64(rec.Priority) / 10.0 * bonusCap
	if bonus > bonusCap {
		bonus = bonusCap
	}

	penalty := healthPenalty(rec.Health)

	return RoutingScore{
		Domain:    rec.Name,
		Score:     clamp(base + bonus - penalty),
		CanHandle: canHandle,
		Priority:  rec.Priority,
		Health:    rec.Health,
		Detail: map[string]float64{
			"priority_bonus": bonus,
			"health_penalty": penalty,
		},
	}
}

func healthPenalty(h registry.Health) float64 {
	switch h {
	case registry.Degraded:
		return 0.1
	case registry.Unhealthy:
		return 0.2
	case registry.Unknown:
		return 0.05
	}
	return 0
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
