package core

import (
	"time"
)

// InputType classifies the payload carried by an Input.
type InputType string

const (
	InputText       InputType = "text"
	InputAudio      InputType = "audio"
	InputEvent      InputType = "event"
	InputMultimodal InputType = "multimodal"
)

// Valid reports whether t is one of the known input types.
func (t InputType) Valid() bool {
	switch t {
	case InputText, InputAudio, InputEvent, InputMultimodal:
		return true
	}
	return false
}

// Input is a single unit of work entering the pipeline. Content always
// holds the raw payload; Text additionally carries the decoded form for
// text inputs.
type Input struct {
	ID        string         `json:"id"`
	Type      InputType      `json:"type"`
	Content   []byte         `json:"content,omitempty"`
	Text      string         `json:"text,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source,omitempty"`
}

// ProcessingStage tracks how far an input has travelled through the
// pipeline.
type ProcessingStage string

const (
	StageReceived    ProcessingStage = "received"
	StageValidated   ProcessingStage = "validated"
	StageRouted      ProcessingStage = "routed"
	StageAnalyzed    ProcessingStage = "analyzed"
	StageSynthesized ProcessingStage = "synthesized"
	StageCompleted   ProcessingStage = "completed"
	StageFailed      ProcessingStage = "failed"
)

// StageChange records one stage transition with its timestamp.
type StageChange struct {
	Stage ProcessingStage `json:"stage"`
	At    time.Time       `json:"at"`
}

// ProcessingContext carries per-request state across pipeline steps.
// It is owned by a single request goroutine and is not safe for
// concurrent mutation.
type ProcessingContext struct {
	RequestID string          `json:"request_id"`
	Input     *Input          `json:"-"`
	Stage     ProcessingStage `json:"stage"`
	Domain    string          `json:"domain,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	History   []StageChange   `json:"history"`
}

// Advance moves the context to the given stage and appends the
// transition to the history. History only ever grows.
func (c *ProcessingContext) Advance(stage ProcessingStage) {
	c.Stage = stage
	c.History = append(c.History, StageChange{Stage: stage, At: time.Now()})
}

// Elapsed returns the time spent processing so far.
func (c *ProcessingContext) Elapsed() time.Duration {
	return time.Since(c.StartedAt)
}

// Response is the synthesized result of processing one input.
// Confidence is always within [0, 1].
type Response struct {
	ID             string         `json:"id"`
	InputID        string         `json:"input_id"`
	Domain         string         `json:"domain,omitempty"`
	Content        map[string]any `json:"content"`
	Confidence     float64        `json:"confidence"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	ProcessingTime time.Duration  `json:"processing_time"`
}
