package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{
			name:     "simple address",
			email:    "a@x.com",
			expected: "a",
		},
		{
			name:     "dotted local part",
			email:    "jane.doe@example.com",
			expected: "jane.doe",
		},
		{
			name:     "no at sign falls back to full value",
			email:    "not-an-email",
			expected: "not-an-email",
		},
		{
			name:     "leading at sign falls back to full value",
			email:    "@example.com",
			expected: "@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &Account{Email: tt.email}
			assert.Equal(t, tt.expected, account.DisplayName())
		})
	}
}

func TestAccountStateHelpers(t *testing.T) {
	extension := "1001"
	secret := "aB3xK9mQpL2wR7tZ"

	tests := []struct {
		name          string
		account       Account
		isActive      bool
		isProvisioned bool
	}{
		{
			name:          "pending reservation",
			account:       Account{Status: AccountStatusPendingProvision},
			isActive:      false,
			isProvisioned: false,
		},
		{
			name: "active with credentials",
			account: Account{
				Status:       AccountStatusActive,
				SipExtension: &extension,
				SipSecret:    &secret,
			},
			isActive:      true,
			isProvisioned: true,
		},
		{
			name:          "provisioning failed",
			account:       Account{Status: AccountStatusProvisionFailed},
			isActive:      false,
			isProvisioned: false,
		},
		{
			name: "active but missing secret",
			account: Account{
				Status:       AccountStatusActive,
				SipExtension: &extension,
			},
			isActive:      true,
			isProvisioned: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isActive, tt.account.IsActive())
			assert.Equal(t, tt.isProvisioned, tt.account.IsProvisioned())
		})
	}
}

func TestTrustedIPIsExpired(t *testing.T) {
	expired := TrustedIP{ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())

	fresh := TrustedIP{ExpiresAt: time.Now().UTC().Add(time.Minute)}
	assert.False(t, fresh.IsExpired())
}

func TestAuditLogHelpers(t *testing.T) {
	success := true
	failure := false

	assert.False(t, (&AuditLog{}).IsFailed())
	assert.False(t, (&AuditLog{Success: &success}).IsFailed())
	assert.True(t, (&AuditLog{Success: &failure}).IsFailed())

	assert.True(t, (&AuditLog{Action: AuditActionLoginFailed}).IsSecurityEvent())
	assert.True(t, (&AuditLog{Action: AuditActionIPTrusted}).IsSecurityEvent())
	assert.False(t, (&AuditLog{Action: AuditActionRegisterInitiated}).IsSecurityEvent())
}
