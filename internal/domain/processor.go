// Package domain defines the contract a cognitive domain processor
// implements to participate in routing. Processors are registered with
// the registry and selected by the router; the engine drives the
// analyze/synthesize cycle on the winner.
package domain

import (
	"context"

	"github.com/angeloszaimis/cognitive-core/internal/core"
)

// Processor is the capability contract for a cognitive domain.
//
// CanHandle is advisory and must be cheap: it is called for every
// candidate on every routing decision. An error from CanHandle is
// treated by callers as "cannot handle", never propagated.
type Processor interface {
	// Name returns the unique domain name used for registration.
	Name() string

	// CanHandle reports whether this domain can process the input.
	CanHandle(ctx context.Context, in *core.Input, pctx *core.ProcessingContext) (bool, error)

	// Analyze extracts domain-specific structure from the input.
	Analyze(ctx context.Context, in *core.Input, pctx *core.ProcessingContext) (map[string]any, error)

	// Synthesize turns an analysis into the final response.
	Synthesize(ctx context.Context, in *core.Input, pctx *core.ProcessingContext, analysis map[string]any) (*core.Response, error)
}

// HealthChecker is an optional probe a Processor may implement.
// Processors without it are presumed healthy. A false result or an
// error both mark the domain unhealthy; the error itself is logged and
// swallowed by the prober.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (bool, error)
}
