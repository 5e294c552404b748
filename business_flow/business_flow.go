// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
)

// ClientMetadata holds client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// redisKey prefixes a cache key with the configured namespace
func redisKey(cfg config.CacheConfig, key string) string {
	return cfg.RedisPrefix + key
}

// ToAccountDTO converts an account model to its public view. The SIP secret
// is deliberately absent.
func ToAccountDTO(account models.Account) dto.AccountDTO {
	return dto.AccountDTO{
		ID:           account.ID,
		UUID:         account.UUID.String(),
		Email:        account.Email,
		Status:       account.Status,
		SipExtension: account.SipExtension,
		CreatedAt:    account.CreatedAt.Format(time.RFC3339),
	}
}

// ToAdminDTO converts an admin model for authentication responses
func ToAdminDTO(admin models.Admin) dto.AdminDTO {
	return dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Username:  admin.Username,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
}

// ToAdminSessionDTO wraps an issued admin token for the login response
func ToAdminSessionDTO(accessToken string, expiresIn time.Duration) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken: accessToken,
		ExpiresIn:   int(expiresIn.Seconds()),
		TokenType:   "Bearer",
		CreatedAt:   utils.UTCNow().Format(time.RFC3339),
	}
}

// ToAdminAccountDetailDTO converts an account model for the admin surface
func ToAdminAccountDetailDTO(account models.Account) dto.AdminAccountDetailDTO {
	return dto.AdminAccountDetailDTO{
		ID:           account.ID,
		UUID:         account.UUID.String(),
		Email:        account.Email,
		Status:       account.Status,
		SipExtension: account.SipExtension,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
		LastLoginAt:  account.LastLoginAt,
	}
}

// ToTrustedIPDTO converts a firewall whitelist entry
func ToTrustedIPDTO(entry models.TrustedIP) dto.TrustedIPDTO {
	return dto.TrustedIPDTO{
		ID:        entry.ID,
		IPAddress: entry.IPAddress,
		AccountID: entry.AccountID,
		CreatedAt: entry.CreatedAt,
		ExpiresAt: entry.ExpiresAt,
	}
}
