// Package repair defines the vocabulary of the electronics repair
// domain: board and fault classifications, measurements, diagnostic
// cases, repair outcomes, and the learned patterns linking them.
package repair

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// BoardType classifies the board under diagnosis.
type BoardType string

const (
	BoardPowerSupply BoardType = "power_supply"
	BoardLogic       BoardType = "logic_board"
	BoardAmplifier   BoardType = "amplifier"
	BoardDisplay     BoardType = "display"
	BoardUnknown     BoardType = "unknown"
)

// FaultType classifies a suspected or confirmed fault.
type FaultType string

const (
	FaultShortCircuit     FaultType = "short_circuit"
	FaultNoPower          FaultType = "no_power"
	FaultLowVoltage       FaultType = "low_voltage"
	FaultHighVoltage      FaultType = "high_voltage"
	FaultOverheating      FaultType = "overheating"
	FaultComponentFailure FaultType = "component_failure"
	FaultIntermittent     FaultType = "intermittent"
	FaultUnknown          FaultType = "unknown"
)

// MeasurementType classifies an electrical measurement.
type MeasurementType string

const (
	MeasureVoltage     MeasurementType = "voltage"
	MeasureCurrent     MeasurementType = "current"
	MeasureResistance  MeasurementType = "resistance"
	MeasureTemperature MeasurementType = "temperature"
	MeasureContinuity  MeasurementType = "continuity"
)

// Action is a repair action a technician can take.
type Action string

const (
	ActionReplaceComponent Action = "replace_component"
	ActionReflowSolder     Action = "reflow_solder"
	ActionRecap            Action = "recap"
	ActionCleanContacts    Action = "clean_contacts"
	ActionAdjustBias       Action = "adjust_bias"
	ActionFirmwareReset    Action = "firmware_reset"
)

// OutcomeStatus records how a repair attempt ended.
type OutcomeStatus string

const (
	OutcomeSuccess    OutcomeStatus = "success"
	OutcomePartial    OutcomeStatus = "partial"
	OutcomeFailure    OutcomeStatus = "failure"
	OutcomeUnverified OutcomeStatus = "unverified"
)

// Score maps an outcome to its contribution to a pattern's success
// rate: full credit for success, half for partial, none otherwise.
func (s OutcomeStatus) Score() float64 {
	switch s {
	case OutcomeSuccess:
		return 1.0
	case OutcomePartial:
		return 0.5
	}
	return 0
}

// DefaultTolerance is the relative deviation beyond which a
// measurement counts as out of range.
const DefaultTolerance = 0.1

// Measurement is a single electrical reading taken at a board location.
type Measurement struct {
	Type     MeasurementType `json:"type"`
	Location string          `json:"location,omitempty"`
	Value    float64         `json:"value"`
	Expected float64         `json:"expected"`
	Unit     string          `json:"unit,omitempty"`
	TakenAt  time.Time       `json:"taken_at,omitempty"`
}

// OutOfRange reports whether the reading deviates from the expected
// value by more than the default tolerance. When the expected value is
// zero, any nonzero reading is out of range.
func (m Measurement) OutOfRange() bool {
	if m.Expected == 0 {
		return m.Value != 0
	}
	deviation := math.Abs(m.Value-m.Expected) / math.Abs(m.Expected)
	return deviation > DefaultTolerance
}

// Symptom is an observed misbehavior reported for a board.
type Symptom struct {
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// SuspectedFault pairs a fault type with the diagnostic confidence in
// it, in [0, 1].
type SuspectedFault struct {
	Fault      FaultType `json:"fault"`
	Confidence float64   `json:"confidence"`
}

// DiagnosticCase is one complete diagnosis: the board, what was
// observed, what was measured, and what the analysis suspects.
type DiagnosticCase struct {
	ID              string           `json:"id"`
	Board           BoardType        `json:"board"`
	Model           string           `json:"model,omitempty"`
	Symptoms        []Symptom        `json:"symptoms,omitempty"`
	Measurements    []Measurement    `json:"measurements,omitempty"`
	SuspectedFaults []SuspectedFault `json:"suspected_faults,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewCase starts an empty diagnostic case for a board.
func NewCase(board BoardType, model string) *DiagnosticCase {
	return &DiagnosticCase{
		ID:        uuid.NewString(),
		Board:     board,
		Model:     model,
		CreatedAt: time.Now(),
	}
}

// Outcome records the result of applying a repair action to a case.
type Outcome struct {
	CaseID     string        `json:"case_id"`
	Board      BoardType     `json:"board"`
	Fault      FaultType     `json:"fault"`
	Action     Action        `json:"action"`
	Status     OutcomeStatus `json:"status"`
	Notes      string        `json:"notes,omitempty"`
	VerifiedAt time.Time     `json:"verified_at"`
}

// Pattern is the learned association between a (board, fault) pair and
// a repair action, with its running success rate.
type Pattern struct {
	Board       BoardType `json:"board"`
	Fault       FaultType `json:"fault"`
	Action      Action    `json:"action"`
	SuccessRate float64   `json:"success_rate"`
	SampleSize  int       `json:"sample_size"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the deterministic storage key for this pattern.
func (p *Pattern) Key() string {
	return PatternKey(p.Board, p.Fault, p.Action)
}

// PatternKey builds the storage key for a (board, fault, action)
// combination.
func PatternKey(board BoardType, fault FaultType, action Action) string {
	return fmt.Sprintf("pattern:%s:%s:%s", board, fault, action)
}

// Observe folds one outcome score into the running success rate as a
// sample-weighted average.
func (p *Pattern) Observe(v float64) {
	p.SampleSize++
	n := float64(p.SampleSize)
	p.SuccessRate = (p.SuccessRate*(n-1) + v) / n
	p.UpdatedAt = time.Now()
}
