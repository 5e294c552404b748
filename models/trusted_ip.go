// Package models contains domain entities and business models for the subscriber onboarding system
package models

import (
	"time"
)

// TrustedIP tracks an address that has been trusted through the PBX host
// firewall for SIP traffic. Rows expire and are swept by the firewall
// scheduler, which also untrusts the address remotely.
type TrustedIP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IPAddress string    `gorm:"type:inet;not null;uniqueIndex:uk_trusted_ips_ip_address" json:"ip_address"`
	AccountID *uint     `gorm:"index:idx_trusted_ips_account_id" json:"account_id,omitempty"`
	Account   *Account  `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index:idx_trusted_ips_expires_at" json:"expires_at"`
}

func (TrustedIP) TableName() string {
	return "trusted_ips"
}

// TrustedIPFilter represents filter criteria for trusted IP queries
type TrustedIPFilter struct {
	ID            *uint
	IPAddress     *string
	AccountID     *uint
	ExpiredBefore *time.Time
}

func (t *TrustedIP) IsExpired() bool {
	return time.Now().UTC().After(t.ExpiresAt)
}
