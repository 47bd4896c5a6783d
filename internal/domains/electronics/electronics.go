// Package electronics implements the electronics repair domain. It
// diagnoses board faults from measurements and symptom descriptions
// using a built-in knowledge base, and recommends repair actions,
// preferring actions whose success rates have been learned from
// recorded outcomes.
package electronics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/memory"
	"github.com/angeloszaimis/cognitive-core/internal/repair"
)

// Name is the registered domain name.
const Name = "electronics_repair"

// eventPrefix marks events this domain handles.
const eventPrefix = "repair."

// Diagnostic confidence levels from the knowledge base.
const (
	confNoVoltage   = 0.8
	confLowVoltage  = 0.7
	confHighVoltage = 0.6
	confSymptom     = 0.6
	confCorroborate = 0.2
)

var repairVocabulary = []string{
	"board", "voltage", "solder", "circuit", "repair",
	"capacitor", "resistor", "amplifier", "diagnos", "power supply",
}

var symptomFaults = []struct {
	keyword string
	faults  []repair.FaultType
}{
	{"no power", []repair.FaultType{repair.FaultNoPower}},
	{"dead", []repair.FaultType{repair.FaultNoPower}},
	{"burning smell", []repair.FaultType{repair.FaultShortCircuit, repair.FaultOverheating}},
	{"smoke", []repair.FaultType{repair.FaultShortCircuit}},
	{"overheat", []repair.FaultType{repair.FaultOverheating}},
	{"hot", []repair.FaultType{repair.FaultOverheating}},
	{"flicker", []repair.FaultType{repair.FaultIntermittent}},
	{"intermittent", []repair.FaultType{repair.FaultIntermittent}},
	{"hum", []repair.FaultType{repair.FaultComponentFailure}},
	{"no sound", []repair.FaultType{repair.FaultComponentFailure}},
}

var defaultActions = map[repair.FaultType]repair.Action{
	repair.FaultNoPower:          repair.ActionReplaceComponent,
	repair.FaultShortCircuit:     repair.ActionReplaceComponent,
	repair.FaultLowVoltage:       repair.ActionRecap,
	repair.FaultHighVoltage:      repair.ActionAdjustBias,
	repair.FaultOverheating:      repair.ActionCleanContacts,
	repair.FaultIntermittent:     repair.ActionReflowSolder,
	repair.FaultComponentFailure: repair.ActionReplaceComponent,
}

// Recommendation is one suggested repair action for a suspected fault.
// Learned recommendations carry the observed success rate; defaults
// come from the knowledge base.
type Recommendation struct {
	Fault       repair.FaultType `json:"fault"`
	Action      repair.Action    `json:"action"`
	Source      string           `json:"source"`
	SuccessRate float64          `json:"success_rate,omitempty"`
	SampleSize  int              `json:"sample_size,omitempty"`
}

// Processor diagnoses electronics repair inputs. The store is optional:
// without one the processor still diagnoses but cannot learn.
type Processor struct {
	store   memory.Store
	repairs *memory.RepairStore
	logger  *slog.Logger
}

// New builds the electronics repair processor over an optional store.
func New(store memory.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{store: store, logger: logger}
	if store != nil {
		p.repairs = memory.NewRepairStore(store, logger)
	}
	return p
}

// Name returns the registered domain name.
func (p *Processor) Name() string { return Name }

// Repairs exposes the repair layer for outcome recording, nil when no
// store is attached.
func (p *Processor) Repairs() *memory.RepairStore { return p.repairs }

// CanHandle accepts repair events and text mentioning repair
// vocabulary.
func (p *Processor) CanHandle(_ context.Context, in *core.Input, _ *core.ProcessingContext) (bool, error) {
	switch in.Type {
	case core.InputEvent:
		return strings.HasPrefix(eventType(in), eventPrefix), nil
	case core.InputText:
		lower := strings.ToLower(in.Text)
		for _, kw := range repairVocabulary {
			if strings.Contains(lower, kw) {
				return true, nil
			}
		}
	}
	return false, nil
}

// Analyze extracts measurements and symptoms from the input, diagnoses
// suspected faults against the knowledge base, and attaches repair
// recommendations.
func (p *Processor) Analyze(ctx context.Context, in *core.Input, _ *core.ProcessingContext) (map[string]any, error) {
	var (
		board        repair.BoardType
		model        string
		measurements []repair.Measurement
		symptoms     []repair.Symptom
		matched      []string
		err          error
	)

	switch in.Type {
	case core.InputEvent:
		board, model, measurements, symptoms, err = p.analyzeEvent(in)
		if err != nil {
			return nil, err
		}
	case core.InputText:
		board, symptoms, matched = analyzeText(in.Text)
	default:
		return nil, fmt.Errorf("unsupported input type %q", in.Type)
	}
	if board == "" {
		board = repair.BoardUnknown
	}

	faults := diagnose(measurements, symptoms)
	recommendations := p.recommend(ctx, board, faults)

	p.logger.Debug("diagnosis complete",
		"input", in.ID,
		"board", board,
		"measurements", len(measurements),
		"symptoms", len(symptoms),
		"faults", len(faults),
	)

	return map[string]any{
		"board":           board,
		"model":           model,
		"measurements":    measurements,
		"symptoms":        symptoms,
		"faults":          faults,
		"recommendations": recommendations,
		"matched":         matched,
	}, nil
}

// Synthesize builds the diagnostic case, persists it when a store is
// attached, and responds with the diagnosis and an action plan.
// Confidence is the strongest fault confidence, floor 0.3 when nothing
// matched.
func (p *Processor) Synthesize(ctx context.Context, in *core.Input, pctx *core.ProcessingContext, analysis map[string]any) (*core.Response, error) {
	board, _ := analysis["board"].(repair.BoardType)
	model, _ := analysis["model"].(string)
	measurements, _ := analysis["measurements"].([]repair.Measurement)
	symptoms, _ := analysis["symptoms"].([]repair.Symptom)
	faults, _ := analysis["faults"].([]repair.SuspectedFault)
	recommendations, _ := analysis["recommendations"].([]Recommendation)

	confidence := 0.3
	for _, f := range faults {
		if f.Confidence > confidence {
			confidence = f.Confidence
		}
	}

	c := repair.NewCase(board, model)
	c.Symptoms = symptoms
	c.Measurements = measurements
	c.SuspectedFaults = faults

	if p.repairs != nil {
		if err := p.repairs.SaveCase(ctx, c); err != nil {
			p.logger.Warn("diagnostic case not persisted", "case", c.ID, "error", err)
		}
	}

	content := map[string]any{
		"message": fmt.Sprintf("diagnosed %s board with %d suspected faults", board, len(faults)),
		"case_id": c.ID,
		"board":   board,
		"diagnosis": map[string]any{
			"suspected_faults": faults,
			"symptoms":         symptomDescriptions(symptoms),
			"measurements":     summarizeMeasurements(measurements),
		},
		"plan":       recommendations,
		"next_steps": nextSteps(confidence, measurements, recommendations),
	}
	if model != "" {
		content["model"] = model
	}
	return core.BuildResponse(pctx, Name, content, confidence), nil
}

// HealthCheck round-trips a probe entry through the store. Without a
// store the processor is healthy but cannot learn from outcomes.
func (p *Processor) HealthCheck(ctx context.Context) (bool, error) {
	if p.store == nil {
		p.logger.Debug("no store attached, learned patterns unavailable")
		return true, nil
	}

	const key = "probe:" + Name
	value := map[string]any{"at": time.Now().Format(time.RFC3339Nano)}
	if err := p.store.Save(ctx, key, value, nil, "health_probe"); err != nil {
		return false, fmt.Errorf("probe write: %w", err)
	}
	if _, err := p.store.Get(ctx, key); err != nil {
		return false, fmt.Errorf("probe read: %w", err)
	}
	if err := p.store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("probe delete: %w", err)
	}
	return true, nil
}

func (p *Processor) analyzeEvent(in *core.Input) (repair.BoardType, string, []repair.Measurement, []repair.Symptom, error) {
	var payload map[string]any
	if len(in.Content) > 0 {
		if err := json.Unmarshal(in.Content, &payload); err != nil {
			return "", "", nil, nil, fmt.Errorf("decoding repair event payload: %w", err)
		}
	}

	boardStr, _ := payload["board"].(string)
	board := parseBoard(boardStr)
	model, _ := payload["model"].(string)

	var measurements []repair.Measurement
	if raw, ok := payload["measurements"]; ok {
		ms, err := decodeMeasurements(raw)
		if err != nil {
			p.logger.Warn("skipping undecodable measurements", "input", in.ID, "error", err)
		} else {
			measurements = ms
		}
	}

	// A bare value/expected pair at the top level is a single voltage
	// reading.
	if value, ok := toFloat(payload["value"]); ok {
		if expected, ok := toFloat(payload["expected"]); ok {
			unit, _ := payload["unit"].(string)
			if unit == "" {
				unit = "V"
			}
			location, _ := payload["location"].(string)
			measurements = append(measurements, repair.Measurement{
				Type:     repair.MeasureVoltage,
				Location: location,
				Value:    value,
				Expected: expected,
				Unit:     unit,
			})
		}
	}

	var symptoms []repair.Symptom
	if raw, ok := payload["symptoms"].([]any); ok {
		for _, s := range raw {
			if desc, ok := s.(string); ok && desc != "" {
				symptoms = append(symptoms, repair.Symptom{Description: desc})
			}
		}
	}
	if desc, ok := payload["symptom"].(string); ok && desc != "" {
		symptoms = append(symptoms, repair.Symptom{Description: desc})
	}

	return board, model, measurements, symptoms, nil
}

// analyzeText extracts the board type and symptoms from a free-text
// problem description.
func analyzeText(text string) (repair.BoardType, []repair.Symptom, []string) {
	lower := strings.ToLower(text)

	board := repair.BoardUnknown
	switch {
	case strings.Contains(lower, "power supply"):
		board = repair.BoardPowerSupply
	case strings.Contains(lower, "logic board"):
		board = repair.BoardLogic
	case strings.Contains(lower, "amplifier"):
		board = repair.BoardAmplifier
	case strings.Contains(lower, "display"):
		board = repair.BoardDisplay
	}

	var symptoms []repair.Symptom
	var matched []string
	for _, entry := range symptomFaults {
		if strings.Contains(lower, entry.keyword) {
			symptoms = append(symptoms, repair.Symptom{Description: entry.keyword})
			matched = append(matched, entry.keyword)
		}
	}
	return board, symptoms, matched
}

// diagnose maps measurements and symptoms to suspected faults. A fault
// implicated by both evidence kinds gains extra confidence.
func diagnose(measurements []repair.Measurement, symptoms []repair.Symptom) []repair.SuspectedFault {
	type evidence struct {
		confidence      float64
		fromMeasurement bool
		fromSymptom     bool
	}
	found := make(map[repair.FaultType]*evidence)

	add := func(f repair.FaultType, conf float64, symptom bool) {
		e, ok := found[f]
		if !ok {
			e = &evidence{}
			found[f] = e
		}
		if conf > e.confidence {
			e.confidence = conf
		}
		if symptom {
			e.fromSymptom = true
		} else {
			e.fromMeasurement = true
		}
	}

	for _, m := range measurements {
		if m.Type != repair.MeasureVoltage || m.Expected == 0 {
			continue
		}
		ratio := m.Value / m.Expected
		switch {
		case ratio < 0.1:
			add(repair.FaultNoPower, confNoVoltage, false)
			add(repair.FaultShortCircuit, confNoVoltage, false)
		case ratio < 0.9:
			add(repair.FaultLowVoltage, confLowVoltage, false)
		case ratio > 1.1:
			add(repair.FaultHighVoltage, confHighVoltage, false)
		}
	}

	for _, s := range symptoms {
		desc := strings.ToLower(s.Description)
		for _, entry := range symptomFaults {
			if strings.Contains(desc, entry.keyword) {
				for _, f := range entry.faults {
					add(f, confSymptom, true)
				}
			}
		}
	}

	faults := make([]repair.SuspectedFault, 0, len(found))
	for f, e := range found {
		conf := e.confidence
		if e.fromMeasurement && e.fromSymptom {
			conf += confCorroborate
			if conf > 1 {
				conf = 1
			}
		}
		faults = append(faults, repair.SuspectedFault{Fault: f, Confidence: conf})
	}
	sort.Slice(faults, func(i, j int) bool {
		if faults[i].Confidence == faults[j].Confidence {
			return faults[i].Fault < faults[j].Fault
		}
		return faults[i].Confidence > faults[j].Confidence
	})
	return faults
}

// recommend picks an action per suspected fault, preferring learned
// patterns over knowledge base defaults.
func (p *Processor) recommend(ctx context.Context, board repair.BoardType, faults []repair.SuspectedFault) []Recommendation {
	var recommendations []Recommendation
	for _, f := range faults {
		if p.repairs != nil {
			pattern, err := p.repairs.BestAction(ctx, board, f.Fault)
			if err != nil {
				p.logger.Warn("learned action lookup failed", "board", board, "fault", f.Fault, "error", err)
			} else if pattern != nil {
				recommendations = append(recommendations, Recommendation{
					Fault:       f.Fault,
					Action:      pattern.Action,
					Source:      "learned",
					SuccessRate: pattern.SuccessRate,
					SampleSize:  pattern.SampleSize,
				})
				continue
			}
		}
		if action, ok := defaultActions[f.Fault]; ok {
			recommendations = append(recommendations, Recommendation{
				Fault:  f.Fault,
				Action: action,
				Source: "default",
			})
		}
	}
	return recommendations
}

func nextSteps(confidence float64, measurements []repair.Measurement, recommendations []Recommendation) []string {
	var steps []string
	if confidence < 0.5 {
		steps = append(steps, "gather more measurements or symptoms")
	}
	if len(measurements) > 0 {
		steps = append(steps, "verify measurements at the listed locations")
	}
	if len(recommendations) > 0 {
		steps = append(steps, "start with: "+strings.ReplaceAll(string(recommendations[0].Action), "_", " "))
	}
	steps = append(steps, "record the outcome after the repair")
	return steps
}

func summarizeMeasurements(measurements []repair.Measurement) []map[string]any {
	summary := make([]map[string]any, 0, len(measurements))
	for _, m := range measurements {
		item := map[string]any{
			"type":  m.Type,
			"value": m.Value,
			"unit":  m.Unit,
		}
		if m.Location != "" {
			item["location"] = m.Location
		}
		if m.Expected != 0 {
			item["expected"] = m.Expected
			item["out_of_range"] = m.OutOfRange()
		}
		summary = append(summary, item)
	}
	return summary
}

func symptomDescriptions(symptoms []repair.Symptom) []string {
	descs := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		descs = append(descs, s.Description)
	}
	return descs
}

func parseBoard(s string) repair.BoardType {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "power"):
		return repair.BoardPowerSupply
	case strings.Contains(lower, "logic"):
		return repair.BoardLogic
	case strings.Contains(lower, "amp"):
		return repair.BoardAmplifier
	case strings.Contains(lower, "display"):
		return repair.BoardDisplay
	}
	return repair.BoardUnknown
}

func decodeMeasurements(raw any) ([]repair.Measurement, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var measurements []repair.Measurement
	if err := json.Unmarshal(data, &measurements); err != nil {
		return nil, err
	}
	for i := range measurements {
		if measurements[i].Type == "" {
			measurements[i].Type = repair.MeasureVoltage
		}
	}
	return measurements, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func eventType(in *core.Input) string {
	if in.Metadata == nil {
		return ""
	}
	t, _ := in.Metadata["event_type"].(string)
	return t
}
