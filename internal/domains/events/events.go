// Package events implements the event processing domain: priority
// classification, categorization, and routing recommendations for
// structured event inputs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/angeloszaimis/cognitive-core/internal/core"
)

// Name is the registered domain name.
const Name = "event_processing"

// historySize bounds the rolling window used to spot recurring events.
const historySize = 50

// Priority levels, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityNormal   = "normal"
	PriorityLow      = "low"
)

// Routing recommendations.
const (
	RecommendAlert  = "alert"
	RecommendLog    = "log"
	RecommendIgnore = "ignore"
)

var priorityKeywords = []struct {
	priority string
	keywords []string
}{
	{PriorityCritical, []string{"failure", "outage", "security", "crash", "fatal"}},
	{PriorityHigh, []string{"error", "timeout", "warning", "alert"}},
	{PriorityLow, []string{"debug", "trace", "heartbeat"}},
}

// Processor classifies and routes structured events. It keeps a small
// rolling window of recent event types to surface recurring events.
type Processor struct {
	logger *slog.Logger

	mu     sync.Mutex
	recent []string
	seen   int
}

// New builds the event processing processor.
func New(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger}
}

// Name returns the registered domain name.
func (p *Processor) Name() string { return Name }

// CanHandle accepts event inputs that carry an event type.
func (p *Processor) CanHandle(_ context.Context, in *core.Input, _ *core.ProcessingContext) (bool, error) {
	return in.Type == core.InputEvent && eventType(in) != "", nil
}

// Analyze classifies the event's priority from its type, derives a
// category from the type prefix, and inventories the payload fields.
func (p *Processor) Analyze(_ context.Context, in *core.Input, _ *core.ProcessingContext) (map[string]any, error) {
	evType := eventType(in)
	priority := classifyPriority(evType)

	var payload map[string]any
	if len(in.Content) > 0 {
		if err := json.Unmarshal(in.Content, &payload); err != nil {
			return nil, fmt.Errorf("decoding event payload: %w", err)
		}
	}

	fields := make([]string, 0, len(payload))
	for k := range payload {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	similar := p.remember(evType)

	analysis := map[string]any{
		"event_type":     evType,
		"category":       category(evType),
		"priority":       priority,
		"fields":         fields,
		"field_count":    len(fields),
		"recent_similar": similar,
	}

	p.logger.Debug("event analyzed",
		"input", in.ID,
		"event_type", evType,
		"priority", priority,
		"recent_similar", similar,
	)
	return analysis, nil
}

// Synthesize turns the classification into a routing recommendation.
// Certainty rises with severity: critical events are unambiguous.
func (p *Processor) Synthesize(_ context.Context, _ *core.Input, pctx *core.ProcessingContext, analysis map[string]any) (*core.Response, error) {
	evType, _ := analysis["event_type"].(string)
	priority, _ := analysis["priority"].(string)
	similar, _ := analysis["recent_similar"].(int)

	var recommendation string
	switch priority {
	case PriorityCritical, PriorityHigh:
		recommendation = RecommendAlert
	case PriorityLow:
		recommendation = RecommendIgnore
	default:
		recommendation = RecommendLog
	}

	var actions []string
	if recommendation == RecommendAlert {
		actions = append(actions, "notify on-call")
	}
	if similar > 3 {
		actions = append(actions, "recurring event, consider automation")
	}

	confidence := 0.7
	if priority == PriorityCritical {
		confidence = 0.9
	}

	content := map[string]any{
		"message":        fmt.Sprintf("event %q classified as %s", evType, priority),
		"event_type":     evType,
		"category":       analysis["category"],
		"priority":       priority,
		"recommendation": recommendation,
		"actions":        actions,
		"fields":         analysis["fields"],
	}
	return core.BuildResponse(pctx, Name, content, confidence), nil
}

// remember records the event type in the rolling window and returns how
// many of the recent events share it, this one included.
func (p *Processor) remember(evType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.recent = append(p.recent, evType)
	if len(p.recent) > historySize {
		p.recent = p.recent[len(p.recent)-historySize:]
	}
	p.seen++

	count := 0
	for _, t := range p.recent {
		if t == evType {
			count++
		}
	}
	return count
}

func eventType(in *core.Input) string {
	if in.Metadata == nil {
		return ""
	}
	t, _ := in.Metadata["event_type"].(string)
	return t
}

func classifyPriority(evType string) string {
	lower := strings.ToLower(evType)
	for _, bucket := range priorityKeywords {
		for _, kw := range bucket.keywords {
			if strings.Contains(lower, kw) {
				return bucket.priority
			}
		}
	}
	return PriorityNormal
}

// category is the segment of the event type before the first dot, or
// the whole type when there is none.
func category(evType string) string {
	if i := strings.Index(evType, "."); i > 0 {
		return evType[:i]
	}
	return evType
}
