package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// maxTextBytes is a hard upper bound on text inputs. The configured
// request limit is enforced earlier, at the HTTP boundary.
const maxTextBytes = 1 << 20

var (
	ErrEmptyText     = errors.New("text input is empty")
	ErrTextTooLong   = errors.New("text input exceeds maximum length")
	ErrEmptyAudio    = errors.New("audio input has no data")
	ErrUnknownFormat = errors.New("unsupported audio format")
	ErrEmptyEvent    = errors.New("event input has no event type")
)

var audioFormats = map[string]bool{
	"wav":  true,
	"mp3":  true,
	"ogg":  true,
	"flac": true,
}

// NewTextInput builds a text Input from a raw string.
func NewTextInput(text, source string, metadata map[string]any) (*Input, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(text) > maxTextBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTextTooLong, len(text))
	}

	return &Input{
		ID:        uuid.NewString(),
		Type:      InputText,
		Content:   []byte(text),
		Text:      text,
		Metadata:  metadata,
		Timestamp: time.Now(),
		Source:    source,
	}, nil
}

// NewAudioInput builds an audio Input. The format is recorded in the
// input metadata so downstream processors can decode the payload.
func NewAudioInput(data []byte, format string, metadata map[string]any) (*Input, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	if !audioFormats[format] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["format"] = format
	metadata["size_bytes"] = len(data)

	return &Input{
		ID:        uuid.NewString(),
		Type:      InputAudio,
		Content:   data,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}, nil
}

// NewEventInput builds a structured event Input. The payload is stored
// JSON-encoded in Content and the event type in the metadata.
func NewEventInput(eventType string, payload, metadata map[string]any) (*Input, error) {
	if eventType == "" {
		return nil, ErrEmptyEvent
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding event payload: %w", err)
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}
	metadata["event_type"] = eventType

	return &Input{
		ID:        uuid.NewString(),
		Type:      InputEvent,
		Content:   content,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}, nil
}

// NewContext starts a fresh processing context for an input. The
// context begins at the received stage.
func NewContext(in *Input) *ProcessingContext {
	now := time.Now()
	return &ProcessingContext{
		RequestID: uuid.NewString(),
		Input:     in,
		Stage:     StageReceived,
		StartedAt: now,
		Metadata:  make(map[string]any),
		History:   []StageChange{{Stage: StageReceived, At: now}},
	}
}
