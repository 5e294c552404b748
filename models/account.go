// Package models contains domain entities and business models for the subscriber onboarding system
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account lifecycle states. An account is reserved as pending_provision, then
// moves to active once the PBX extension exists, or to provision_failed when
// provisioning gives up. provision_failed is terminal until an operator deletes
// the account.
const (
	AccountStatusPendingProvision = "pending_provision"
	AccountStatusActive           = "active"
	AccountStatusProvisionFailed  = "provision_failed"
)

type Account struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`

	// Identity
	Email        string `gorm:"size:255;not null;uniqueIndex:uk_accounts_email" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// Provisioning state
	Status string `gorm:"type:account_status_enum;not null;default:'pending_provision';index:idx_accounts_status" json:"status"`

	// SIP credentials, populated only after successful provisioning
	SipExtension *string `gorm:"size:16;uniqueIndex:uk_accounts_sip_extension" json:"sip_extension,omitempty"`
	SipSecret    *string `gorm:"size:64" json:"-"` // Never serialize SIP secret

	// Timestamps
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	AuditLogs []AuditLog `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Email         *string
	Status        *string
	SipExtension  *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

func (a *Account) IsProvisioned() bool {
	return a.SipExtension != nil && a.SipSecret != nil
}

// DisplayName derives the softphone display name from the email local part.
func (a *Account) DisplayName() string {
	if i := strings.Index(a.Email, "@"); i > 0 {
		return a.Email[:i]
	}
	return a.Email
}
