package strategy

import (
	"context"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

// RoutingStrategy scores a candidate domain for an input. The router
// calls Score once per candidate per routing decision, so
// implementations must be cheap and side-effect free.
type RoutingStrategy interface {
	Name() string
	Score(ctx context.Context, rec *registry.Record, in *core.Input, pctx *core.ProcessingContext) RoutingScore
}

// RoutingScore is one candidate's evaluation. Score is always within
// [0, 1]; Detail carries the strategy-specific breakdown.
type RoutingScore struct {
	Domain    string             `json:"domain"`
	Score     float64            `json:"score"`
	CanHandle bool               `json:"can_handle"`
	Priority  int                `json:"priority"`
	Health    registry.Health    `json:"health"`
	Detail    map[string]float64 `json:"detail,omitempty"`
}
