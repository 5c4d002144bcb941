// Package orchestration composes the auth, tenancy, statemachine,
// selection, context, hints, and eventstore packages into the six RPC
// surfaces of spec.md §6 (ManageTask, ManageSubtask, ManageProject,
// ManageContext, ManageAgent, ManageToken), generalising a single-entity
// CLI manager's actor/audit-threaded operation shape to multi-tenant,
// multi-entity facade methods. Wiring onto an actual wire transport is
// out of scope (SPEC_FULL.md §4.9); cmd/conductor exercises these
// methods directly.
package orchestration

import (
	orcherrors "github.com/denkhaus/conductor/internal/errors"
)

// Response is the canonical envelope of spec.md §6.
type Response struct {
	Success         bool           `json:"success"`
	Data            any            `json:"data,omitempty"`
	WorkflowGuidance any           `json:"workflow_guidance,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
	Error           *ErrorPayload  `json:"error,omitempty"`
	Operation       string         `json:"operation,omitempty"`
}

// ErrorPayload is the failure half of the envelope.
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func ok(data any) *Response {
	return &Response{Success: true, Data: data}
}

func okWithGuidance(data, guidance any) *Response {
	return &Response{Success: true, Data: data, WorkflowGuidance: guidance}
}

func fail(operation string, err error) *Response {
	return &Response{
		Success:   false,
		Operation: operation,
		Error: &ErrorPayload{
			Message: err.Error(),
			Code:    string(orcherrors.CodeOf(err)),
		},
	}
}
