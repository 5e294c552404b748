// Package dto
package dto

import "time"

type AdminDTO struct {
	ID        uint   `json:"id" example:"1"`
	UUID      string `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Username  string `json:"username" example:"admin"`
	IsActive  *bool  `json:"is_active" example:"true"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type AdminSessionDTO struct {
	AccessToken string `json:"access_token" example:"jwt"`
	ExpiresIn   int    `json:"expires_in" example:"28800"`
	TokenType   string `json:"token_type" example:"Bearer"`
	CreatedAt   string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type AdminCaptchaInitResponse struct {
	ChallengeID       string `json:"challenge_id"`
	MasterImageBase64 string `json:"master_image_base64"`
	ThumbImageBase64  string `json:"thumb_image_base64"`
}

type AdminCaptchaVerifyRequest struct {
	ChallengeID string  `json:"challenge_id" validate:"required"`
	Username    string  `json:"username" validate:"required,min=3,max=255"`
	Password    string  `json:"password" validate:"required,min=8,max=100"`
	UserAngle   float64 `json:"user_angle" validate:"required"`
}

type AdminLoginResponse struct {
	Admin   AdminDTO        `json:"admin"`
	Session AdminSessionDTO `json:"session"`
}

// AdminListAccountsRequest holds optional filters for the account roster
type AdminListAccountsRequest struct {
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=pending_provision active provision_failed"`
	Email     *string `json:"email,omitempty" validate:"omitempty,max=255"`
	Page      int     `json:"page" validate:"omitempty,min=1"`
	PageSize  int     `json:"page_size" validate:"omitempty,min=1,max=100"`
	OrderBy   string  `json:"order_by" validate:"omitempty,oneof=id email created_at"`
	OrderDesc bool    `json:"order_desc"`
}

// AdminAccountDetailDTO contains full account info for admin. The SIP secret
// stays out of the admin surface.
type AdminAccountDetailDTO struct {
	ID           uint       `json:"id"`
	UUID         string     `json:"uuid"`
	Email        string     `json:"email"`
	Status       string     `json:"status"`
	SipExtension *string    `json:"sip_extension,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// AdminListAccountsResponse is the paginated account roster
type AdminListAccountsResponse struct {
	Message  string                  `json:"message"`
	Items    []AdminAccountDetailDTO `json:"items"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

// AdminDeleteAccountResponse reports the result of an account deletion
type AdminDeleteAccountResponse struct {
	Message          string `json:"message"`
	AccountID        uint   `json:"account_id"`
	ExtensionRemoved bool   `json:"extension_removed"`
}

// AdminTrustIPRequest is the request to whitelist an IP on the PBX firewall
type AdminTrustIPRequest struct {
	IPAddress string `json:"ip_address" validate:"required,ip" example:"203.0.113.7"`
	AccountID *uint  `json:"account_id,omitempty" validate:"omitempty,min=1"`
}

// TrustedIPDTO represents a firewall whitelist entry
type TrustedIPDTO struct {
	ID        uint      `json:"id"`
	IPAddress string    `json:"ip_address"`
	AccountID *uint     `json:"account_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminListTrustedIPsResponse lists current firewall whitelist entries
type AdminListTrustedIPsResponse struct {
	Message string         `json:"message"`
	Items   []TrustedIPDTO `json:"items"`
}

// Common error codes for admin operations
const (
	ErrorInvalidCaptcha = "CAPTCHA_INVALID"
	ErrorFirewallFailed = "FIREWALL_OPERATION_FAILED"
)
