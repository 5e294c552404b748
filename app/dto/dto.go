// Package dto contains Data Transfer Objects for API request and response structures
package dto

// APIResponse is the envelope every endpoint answers with. Data carries the
// operation payload on success, Error is set on failure; the two are never
// both present.
type APIResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      any          `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
}

// ErrorDetail identifies a failure by a stable machine-readable code.
// Details holds field-level validation messages when present.
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
