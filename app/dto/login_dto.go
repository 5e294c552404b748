// Package dto contains Data Transfer Objects for API request and response structures
package dto

// LoginRequest represents the request payload for subscriber login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"alice@example.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123!"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Message     string     `json:"message" example:"Login successful"`
	AccessToken string     `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string     `json:"token_type" example:"Bearer"`
	ExpiresIn   int        `json:"expires_in" example:"86400"`
	Account     AccountDTO `json:"account"`
}

// Common error codes for authentication operations. Absent accounts, wrong
// passwords, and unprovisioned accounts all map to ErrorInvalidCredentials so
// the login endpoint cannot be used to enumerate registered emails.
const (
	ErrorInvalidCredentials = "INVALID_CREDENTIALS"
	ErrorUnauthorized       = "UNAUTHORIZED"
)
