// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Susanoo/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository defines operations for subscriber accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByUUID(ctx context.Context, uuid string) (*models.Account, error)
	BySipExtension(ctx context.Context, extension string) (*models.Account, error)
	UpdateProvisioned(ctx context.Context, accountID uint, sipExtension, sipSecret string) error
	UpdateStatus(ctx context.Context, accountID uint, status string) error
	UpdateLastLogin(ctx context.Context, accountID uint, lastLoginAt time.Time) error
	Delete(ctx context.Context, accountID uint) error
}

// AdminRepository defines operations for admins
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Admin, error)
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, lastLoginAt time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// TrustedIPRepository defines operations for firewall-trusted IPs
type TrustedIPRepository interface {
	Repository[models.TrustedIP, models.TrustedIPFilter]
	ByIPAddress(ctx context.Context, ip string) (*models.TrustedIP, error)
	Upsert(ctx context.Context, ip string, accountID *uint, expiresAt time.Time) error
	ListExpired(ctx context.Context, asOf time.Time) ([]*models.TrustedIP, error)
	DeleteByIPAddress(ctx context.Context, ip string) error
	DeleteExpired(ctx context.Context, asOf time.Time) (int64, error)
}
