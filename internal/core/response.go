package core

import (
	"time"

	"github.com/google/uuid"
)

// BuildResponse assembles a Response for a completed pipeline run.
// Confidence is clamped to [0, 1].
func BuildResponse(pctx *ProcessingContext, domain string, content map[string]any, confidence float64) *Response {
	resp := &Response{
		ID:         uuid.NewString(),
		Domain:     domain,
		Content:    content,
		Confidence: clampConfidence(confidence),
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
	}
	if pctx != nil {
		resp.ProcessingTime = pctx.Elapsed()
		if pctx.Input != nil {
			resp.InputID = pctx.Input.ID
		}
	}
	return resp
}

// ErrorResponse assembles a zero-confidence Response describing a
// pipeline failure.
func ErrorResponse(pctx *ProcessingContext, domain string, err error) *Response {
	resp := BuildResponse(pctx, domain, map[string]any{
		"error": err.Error(),
	}, 0)
	resp.Metadata["failed"] = true
	return resp
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
