// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SIPCredentialsResponse carries everything a softphone needs to register.
// This is the only response in the API that contains the SIP secret.
type SIPCredentialsResponse struct {
	Username     string `json:"username" example:"1001"`
	Password     string `json:"password" example:"aB3xK9mQpL2wR7tZ"`
	AuthUsername string `json:"auth_username" example:"1001"`
	DisplayName  string `json:"display_name" example:"alice"`
	Domain       string `json:"domain" example:"sip.susanoo-voip.com"`
	Port         int    `json:"port" example:"5060"`
	Transport    string `json:"transport" example:"udp"`
}

// Common error codes for credential operations
const (
	ErrorNotProvisioned  = "NOT_PROVISIONED"
	ErrorAccountNotFound = "ACCOUNT_NOT_FOUND"
)
