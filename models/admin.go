// Package models contains domain entities and business models for the subscriber onboarding system
package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a console operator. Operators manage subscriber accounts (listing,
// inspection, deletion of stuck reservations) and firewall grants; they are
// never SIP endpoints themselves. The bootstrap operator is ensured at
// startup, further ones are created out of band.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_admins_uuid;index:idx_admins_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_admins_username;index:idx_admins_username" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`

	IsActive    *bool      `gorm:"default:true;index:idx_admins_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_admins_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_admins_last_login_at" json:"last_login_at,omitempty"`
}

func (Admin) TableName() string {
	return "admins"
}

// CanLogin reports whether the operator may authenticate. Deactivated
// operators keep their row and audit history but are locked out.
func (a *Admin) CanLogin() bool {
	return a.IsActive != nil && *a.IsActive
}

// AdminFilter narrows operator queries.
type AdminFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Username *string
	IsActive *bool
}
