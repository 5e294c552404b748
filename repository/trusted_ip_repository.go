// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrustedIPRepositoryImpl implements TrustedIPRepository interface
type TrustedIPRepositoryImpl struct {
	*BaseRepository[models.TrustedIP, models.TrustedIPFilter]
}

// NewTrustedIPRepository creates a new trusted IP repository
func NewTrustedIPRepository(db *gorm.DB) TrustedIPRepository {
	return &TrustedIPRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TrustedIP, models.TrustedIPFilter](db),
	}
}

// ByIPAddress retrieves a trusted IP record by address
func (r *TrustedIPRepositoryImpl) ByIPAddress(ctx context.Context, ip string) (*models.TrustedIP, error) {
	filter := models.TrustedIPFilter{IPAddress: &ip}
	ips, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find trusted IP: %w", err)
	}

	if len(ips) == 0 {
		return nil, nil
	}

	return ips[0], nil
}

// Upsert inserts a trusted IP or extends the expiry of an existing row
func (r *TrustedIPRepositoryImpl) Upsert(ctx context.Context, ip string, accountID *uint, expiresAt time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	entry := models.TrustedIP{
		IPAddress: ip,
		AccountID: accountID,
		CreatedAt: utils.UTCNow(),
		ExpiresAt: expiresAt,
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"account_id", "expires_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to upsert trusted IP: %w", err)
	}

	return nil
}

// ListExpired retrieves trusted IPs whose expiry has passed
func (r *TrustedIPRepositoryImpl) ListExpired(ctx context.Context, asOf time.Time) ([]*models.TrustedIP, error) {
	db := r.getDB(ctx)

	var ips []*models.TrustedIP
	err := db.Where("expires_at < ?", asOf).
		Order("expires_at ASC").
		Find(&ips).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired trusted IPs: %w", err)
	}

	return ips, nil
}

// DeleteByIPAddress removes a trusted IP row
func (r *TrustedIPRepositoryImpl) DeleteByIPAddress(ctx context.Context, ip string) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Where("ip_address = ?", ip).Delete(&models.TrustedIP{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete trusted IP: %w", err)
	}

	return nil
}

// DeleteExpired removes all trusted IP rows whose expiry has passed
func (r *TrustedIPRepositoryImpl) DeleteExpired(ctx context.Context, asOf time.Time) (int64, error) {
	db := r.getDB(ctx)

	res := db.Where("expires_at < ?", asOf).Delete(&models.TrustedIP{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired trusted IPs: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TrustedIPRepositoryImpl) applyFilter(query *gorm.DB, filter models.TrustedIPFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.IPAddress != nil {
		query = query.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.ExpiredBefore != nil {
		query = query.Where("expires_at < ?", *filter.ExpiredBefore)
	}
	return query
}

// ByFilter retrieves trusted IPs based on filter criteria
func (r *TrustedIPRepositoryImpl) ByFilter(ctx context.Context, filter models.TrustedIPFilter, orderBy string, limit, offset int) ([]*models.TrustedIP, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TrustedIP{})

	// Apply filters
	query = r.applyFilter(query, filter)

	// Apply ordering (default to id DESC)
	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	// Apply pagination
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var ips []*models.TrustedIP
	err := query.Find(&ips).Error
	if err != nil {
		return nil, err
	}

	return ips, nil
}

// Count returns the number of trusted IPs matching the filter
func (r *TrustedIPRepositoryImpl) Count(ctx context.Context, filter models.TrustedIPFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TrustedIP{})

	// Apply filters
	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any trusted IP matching the filter exists
func (r *TrustedIPRepositoryImpl) Exists(ctx context.Context, filter models.TrustedIPFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
