package http

import (
	"encoding/json"

	"passageai/internal/prompts"
	"passageai/internal/schema"
)

// PassageRequest is the body of /analyze and /mindmap.
type PassageRequest struct {
	Passage       string `json:"passage"`
	PassageFormat string `json:"passageFormat,omitempty"`
}

// SolveRequest is the body of /solve. Questions is a string or an array of
// strings.
type SolveRequest struct {
	Passage       string            `json:"passage"`
	Questions     prompts.Questions `json:"questions"`
	PassageFormat string            `json:"passageFormat,omitempty"`
}

// ErrorResponse is the envelope for every non-2xx reply. ValidationErrors
// and RawOutput are only set when model output fails schema validation.
type ErrorResponse struct {
	Success          bool            `json:"success"`
	Code             string          `json:"code,omitempty"`
	Error            string          `json:"error"`
	ValidationErrors []schema.Error  `json:"validationErrors,omitempty"`
	RawOutput        json.RawMessage `json:"rawOutput,omitempty"`
}
