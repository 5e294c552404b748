// Package dto contains Data Transfer Objects for API request and response structures
package dto

// RegisterRequest represents the request payload for subscriber registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100,password_strength" example:"SecurePass123!"`
}

// AccountDTO is the public view of a subscriber account. The SIP secret is
// never part of this view; it is only exposed through the credentials endpoint.
type AccountDTO struct {
	ID           uint    `json:"id" example:"1"`
	UUID         string  `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email        string  `json:"email" example:"alice@example.com"`
	Status       string  `json:"status" example:"active"`
	SipExtension *string `json:"sip_extension,omitempty" example:"1001"`
	CreatedAt    string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// RegisterResponse represents the successful registration response
type RegisterResponse struct {
	Message string     `json:"message" example:"Registration completed successfully"`
	Account AccountDTO `json:"account"`
}

// Common error codes for registration operations
const (
	ErrorDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrorProvisioningFailed = "PROVISIONING_FAILED"
	ErrorValidation         = "VALIDATION_ERROR"
	ErrorInternal           = "INTERNAL_ERROR"
)
