package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/memory"
	"github.com/angeloszaimis/cognitive-core/internal/metrics"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
	"github.com/angeloszaimis/cognitive-core/internal/router"
)

var (
	// ErrInvalidInput marks inputs rejected before routing.
	ErrInvalidInput = errors.New("engine: invalid input")

	// ErrNoDomain is returned when no enabled domain accepts the input.
	ErrNoDomain = errors.New("engine: no domain accepts this input")
)

// Engine runs the full processing pipeline: validate, route, analyze,
// persist, synthesize. The store and collector are optional; without a
// store analyses are not persisted, without a collector no metrics are
// emitted.
type Engine struct {
	registry  *registry.Registry
	router    *router.Router
	store     memory.Store
	collector *metrics.Collector
	logger    *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// New assembles an engine over its collaborators.
func New(reg *registry.Registry, rt *router.Router, store memory.Store, collector *metrics.Collector, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		registry:  reg,
		router:    rt,
		store:     store,
		collector: collector,
		logger:    logger,
	}
}

// Process runs one input through the pipeline and returns the
// synthesized response. Processor failures return both an error
// response describing the failure and the error itself; the domain's
// failure counter is incremented so repeated failures open its
// circuit. A success clears the counter, but only after the whole
// pipeline succeeded.
func (e *Engine) Process(ctx context.Context, in *core.Input) (*core.Response, error) {
	if err := validate(in); err != nil {
		e.failed.Add(1)
		e.emit(metrics.Event{Type: metrics.EventProcessingFailed})
		return nil, err
	}

	pctx := core.NewContext(in)
	pctx.Advance(core.StageValidated)
	e.emit(metrics.Event{Type: metrics.EventInputReceived, InputType: in.Type})

	decision, err := e.router.Route(ctx, in, pctx, nil)
	if err != nil {
		e.failed.Add(1)
		pctx.Advance(core.StageFailed)
		e.emit(metrics.Event{Type: metrics.EventProcessingFailed, InputType: in.Type})
		return nil, fmt.Errorf("routing input %s: %w", in.ID, err)
	}
	if decision == nil {
		e.failed.Add(1)
		pctx.Advance(core.StageFailed)
		e.emit(metrics.Event{Type: metrics.EventProcessingFailed, InputType: in.Type})
		e.logger.Warn("no domain accepts input", "input", in.ID, "type", in.Type)
		return nil, fmt.Errorf("%w: input %s", ErrNoDomain, in.ID)
	}

	pctx.Domain = decision.Domain
	pctx.Advance(core.StageRouted)
	e.emit(metrics.Event{Type: metrics.EventDomainSelected, Domain: decision.Domain, InputType: in.Type})

	analysis, err := decision.Processor.Analyze(ctx, in, pctx)
	if err != nil {
		return e.fail(pctx, decision.Domain, fmt.Errorf("analyzing input %s in %s: %w", in.ID, decision.Domain, err))
	}

	e.persistAnalysis(ctx, in, decision.Domain, analysis)
	pctx.Advance(core.StageAnalyzed)

	resp, err := decision.Processor.Synthesize(ctx, in, pctx, analysis)
	if err != nil {
		return e.fail(pctx, decision.Domain, fmt.Errorf("synthesizing response for %s in %s: %w", in.ID, decision.Domain, err))
	}
	pctx.Advance(core.StageSynthesized)
	pctx.Advance(core.StageCompleted)

	e.router.RecordSuccess(decision.Domain)
	e.processed.Add(1)
	e.emit(metrics.Event{
		Type:       metrics.EventProcessingCompleted,
		Domain:     decision.Domain,
		InputType:  in.Type,
		Duration:   pctx.Elapsed(),
		Confidence: resp.Confidence,
	})
	e.logger.Info("input processed",
		"input", in.ID,
		"domain", decision.Domain,
		"confidence", resp.Confidence,
		"duration", pctx.Elapsed(),
	)
	return resp, nil
}

// ProcessText builds a text input and runs it through the pipeline.
func (e *Engine) ProcessText(ctx context.Context, text, source string, metadata map[string]any) (*core.Response, error) {
	in, err := core.NewTextInput(text, source, metadata)
	if err != nil {
		return nil, e.reject(err)
	}
	return e.Process(ctx, in)
}

// ProcessEvent builds an event input and runs it through the pipeline.
func (e *Engine) ProcessEvent(ctx context.Context, eventType string, payload, metadata map[string]any) (*core.Response, error) {
	in, err := core.NewEventInput(eventType, payload, metadata)
	if err != nil {
		return nil, e.reject(err)
	}
	return e.Process(ctx, in)
}

// ProcessAudio builds an audio input and runs it through the pipeline.
func (e *Engine) ProcessAudio(ctx context.Context, data []byte, format string, metadata map[string]any) (*core.Response, error) {
	in, err := core.NewAudioInput(data, format, metadata)
	if err != nil {
		return nil, e.reject(err)
	}
	return e.Process(ctx, in)
}

// reject counts an input that never made it into the pipeline.
func (e *Engine) reject(err error) error {
	e.failed.Add(1)
	e.emit(metrics.Event{Type: metrics.EventProcessingFailed})
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// Stats is the aggregate view across the engine's collaborators.
type Stats struct {
	Processed int64              `json:"processed"`
	Failed    int64              `json:"failed"`
	Registry  registry.Stats     `json:"registry"`
	Router    router.Stats       `json:"router"`
	Memory    *memory.StoreStats `json:"memory,omitempty"`
}

// Stats snapshots pipeline counters and collaborator stats.
func (e *Engine) Stats(ctx context.Context) Stats {
	s := Stats{
		Processed: e.processed.Load(),
		Failed:    e.failed.Load(),
		Registry:  e.registry.Stats(),
		Router:    e.router.Stats(),
	}
	if e.store != nil {
		if ms, err := e.store.Stats(ctx); err == nil {
			s.Memory = &ms
		} else {
			e.logger.Warn("memory stats unavailable", "error", err)
		}
	}
	return s
}

// HealthCheck probes every registered domain and the store. Store
// problems are logged, not returned: persistence is an enhancement.
func (e *Engine) HealthCheck(ctx context.Context) map[string]registry.Health {
	results := e.registry.HealthCheckAll(ctx)
	if e.store != nil {
		if _, err := e.store.Stats(ctx); err != nil {
			e.logger.Warn("memory store unreachable", "error", err)
		}
	}
	return results
}

// fail finishes the pipeline on a processor error: counts the failure
// against the domain's circuit, marks the stage, and returns an error
// response alongside the error.
func (e *Engine) fail(pctx *core.ProcessingContext, domain string, err error) (*core.Response, error) {
	count := e.router.RecordFailure(domain)
	e.failed.Add(1)
	pctx.Advance(core.StageFailed)

	e.emit(metrics.Event{Type: metrics.EventProcessingFailed, Domain: domain, InputType: pctx.Input.Type})
	if count == e.router.Threshold() {
		e.emit(metrics.Event{Type: metrics.EventCircuitOpened, Domain: domain})
	}

	e.logger.Error("processing failed",
		"request", pctx.RequestID,
		"input", pctx.Input.ID,
		"domain", domain,
		"failures", count,
		"error", err,
	)
	return core.ErrorResponse(pctx, domain, err), err
}

// persistAnalysis writes the analysis through to memory. Store errors
// never fail the pipeline.
func (e *Engine) persistAnalysis(ctx context.Context, in *core.Input, domain string, analysis map[string]any) {
	if e.store == nil {
		return
	}

	value := map[string]any{
		"input_id": in.ID,
		"domain":   domain,
		"analysis": analysis,
	}
	tags := []string{"domain:" + domain, "type:" + string(in.Type)}
	if err := e.store.Save(ctx, "analysis:"+in.ID, value, tags, "analysis"); err != nil {
		e.logger.Warn("analysis not persisted", "input", in.ID, "error", err)
	}
}

func validate(in *core.Input) error {
	switch {
	case in == nil:
		return fmt.Errorf("%w: nil input", ErrInvalidInput)
	case in.ID == "":
		return fmt.Errorf("%w: missing input id", ErrInvalidInput)
	case !in.Type.Valid():
		return fmt.Errorf("%w: unknown input type %q", ErrInvalidInput, in.Type)
	}
	return nil
}

func (e *Engine) emit(ev metrics.Event) {
	if e.collector != nil {
		e.collector.Emit(ev)
	}
}
