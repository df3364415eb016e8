package dto

import "time"

// APIResponse is the envelope every successful endpoint returns
type APIResponse struct {
	Success   bool        `json:"success" example:"true"`
	Message   string      `json:"message,omitempty" example:"Operation completed successfully"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewAPIResponse creates a successful response
func NewAPIResponse(data interface{}, message string) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// AssignResponse is the flat response of a single assignment
type AssignResponse struct {
	Success      bool      `json:"success" example:"true"`
	Message      string    `json:"message" example:"Training program assigned successfully"`
	AssignmentID string    `json:"assignment_id" example:"4f6c2b8e-1d0a-4e63-9a55-2f1a0b7c9d10"`
	Timestamp    time.Time `json:"timestamp"`
}

// HealthResponse reports service liveness
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"up"`
}
