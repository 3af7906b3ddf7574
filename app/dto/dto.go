// Package dto defines request and response types for the HTTP API
package dto

// APIResponse represents the standard API response structure
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail represents error details in API responses
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// NewSuccessResponse wraps data in the standard success envelope
func NewSuccessResponse(message string, data any) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse wraps an error code in the standard failure envelope
func NewErrorResponse(message, code string, details any) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Error: ErrorDetail{
			Code:    code,
			Details: details,
		},
	}
}
