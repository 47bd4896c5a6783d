package handler

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/memory"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

// ProcessTextRequest is the body of POST /process/text.
type ProcessTextRequest struct {
	Text     string         `json:"text"`
	Source   string         `json:"source,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks the request against the configured text limit.
func (r ProcessTextRequest) Validate(maxLength int) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text,
			validation.Required,
			validation.Length(1, maxLength),
		),
		validation.Field(&r.Source, validation.Length(0, 256)),
	)
}

// ProcessEventRequest is the body of POST /process/event.
type ProcessEventRequest struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (r ProcessEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EventType,
			validation.Required,
			validation.Length(1, 256),
		),
	)
}

// ProcessAudioRequest is the body of POST /process/audio. The payload
// travels base64-encoded; its decoded size is checked against the
// configured limit after decoding.
type ProcessAudioRequest struct {
	DataBase64 string         `json:"data_base64"`
	Format     string         `json:"format"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func (r ProcessAudioRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DataBase64, validation.Required, is.Base64),
		validation.Field(&r.Format, validation.Required),
	)
}

// processResponse wraps a pipeline response for the wire.
type processResponse struct {
	Response *core.Response `json:"response"`
}

// errorBody is the uniform error payload. When the pipeline produced a
// degraded response alongside the error, it is attached.
type errorBody struct {
	Error    string         `json:"error"`
	Response *core.Response `json:"response,omitempty"`
}

type searchResponse struct {
	Results []*memory.Entry `json:"results"`
	Count   int             `json:"count"`
}

type healthResponse struct {
	Status  string                     `json:"status"`
	Domains map[string]registry.Health `json:"domains"`
}

type serviceCard struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}
