// Package businessflow contains admin account management operations
package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	defaultRosterPage     = 1
	defaultRosterPageSize = 20
	maxRosterPageSize     = 100
)

// AdminAccountFlow exposes admin account management use cases
type AdminAccountFlow interface {
	ListAccounts(ctx context.Context, req *dto.AdminListAccountsRequest) (*dto.AdminListAccountsResponse, error)
	GetAccount(ctx context.Context, accountID uint) (*dto.AdminAccountDetailDTO, error)
	DeleteAccount(ctx context.Context, accountID uint, metadata *ClientMetadata) (*dto.AdminDeleteAccountResponse, error)
	ExportAccounts(ctx context.Context) (string, []byte, error)
	ListTrustedIPs(ctx context.Context) (*dto.AdminListTrustedIPsResponse, error)
	TrustIP(ctx context.Context, req *dto.AdminTrustIPRequest, metadata *ClientMetadata) (*dto.TrustedIPDTO, error)
	UntrustIP(ctx context.Context, ip string, metadata *ClientMetadata) error
}

// AdminAccountFlowImpl implements AdminAccountFlow
type AdminAccountFlowImpl struct {
	db            *gorm.DB
	accountRepo   repository.AccountRepository
	trustedIPRepo repository.TrustedIPRepository
	auditRepo     repository.AuditLogRepository
	pbxClient     services.PBXClient
	firewallSvc   services.FirewallService
	rc            *redis.Client
	cacheCfg      *config.CacheConfig
	firewallCfg   *config.FirewallConfig
}

func NewAdminAccountFlow(
	db *gorm.DB,
	accountRepo repository.AccountRepository,
	trustedIPRepo repository.TrustedIPRepository,
	auditRepo repository.AuditLogRepository,
	pbxClient services.PBXClient,
	firewallSvc services.FirewallService,
	rc *redis.Client,
	cacheCfg *config.CacheConfig,
	firewallCfg *config.FirewallConfig,
) AdminAccountFlow {
	return &AdminAccountFlowImpl{
		db:            db,
		accountRepo:   accountRepo,
		trustedIPRepo: trustedIPRepo,
		auditRepo:     auditRepo,
		pbxClient:     pbxClient,
		firewallSvc:   firewallSvc,
		rc:            rc,
		cacheCfg:      cacheCfg,
		firewallCfg:   firewallCfg,
	}
}

// ListAccounts returns a filtered, paginated account roster
func (f *AdminAccountFlowImpl) ListAccounts(ctx context.Context, req *dto.AdminListAccountsRequest) (*dto.AdminListAccountsResponse, error) {
	page := defaultRosterPage
	pageSize := defaultRosterPageSize
	filter := models.AccountFilter{}
	orderBy := "id DESC"

	if req != nil {
		if req.Page > 0 {
			page = req.Page
		}
		if req.PageSize > 0 {
			pageSize = req.PageSize
		}
		if pageSize > maxRosterPageSize {
			pageSize = maxRosterPageSize
		}
		filter.Status = req.Status
		filter.Email = req.Email
		if req.OrderBy != "" {
			dir := "ASC"
			if req.OrderDesc {
				dir = "DESC"
			}
			orderBy = req.OrderBy + " " + dir
		}
	}

	total, err := f.accountRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LIST_ACCOUNTS_FAILED", "Failed to count accounts", err)
	}

	accounts, err := f.accountRepo.ByFilter(ctx, filter, orderBy, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LIST_ACCOUNTS_FAILED", "Failed to list accounts", err)
	}

	items := make([]dto.AdminAccountDetailDTO, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, ToAdminAccountDetailDTO(*a))
	}

	return &dto.AdminListAccountsResponse{
		Message:  "Accounts retrieved successfully",
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetAccount retrieves full account info for the admin surface
func (f *AdminAccountFlowImpl) GetAccount(ctx context.Context, accountID uint) (*dto.AdminAccountDetailDTO, error) {
	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("GET_ACCOUNT_FAILED", "Failed to get account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	detail := ToAdminAccountDetailDTO(*account)
	return &detail, nil
}

// DeleteAccount removes an account and its PBX extension. The extension is
// removed first: if the PBX refuses, the row stays so the operator can retry
// instead of orphaning live credentials. This is also how rows stuck in
// pending_provision or provision_failed get cleared.
func (f *AdminAccountFlowImpl) DeleteAccount(ctx context.Context, accountID uint, metadata *ClientMetadata) (*dto.AdminDeleteAccountResponse, error) {
	account, err := f.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("DELETE_ACCOUNT_FAILED", "Failed to get account", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}

	extensionRemoved := false
	if account.SipExtension != nil {
		if err := f.pbxClient.RemoveExtension(ctx, *account.SipExtension); err != nil {
			errMsg := fmt.Sprintf("Failed to remove extension %s for account %d: %v", *account.SipExtension, account.ID, err)
			_ = f.createAuditLog(ctx, &account.ID, models.AuditActionAccountDeleted, errMsg, false, &errMsg, metadata)
			return nil, NewBusinessError("EXTENSION_REMOVAL_FAILED", "Failed to remove extension from PBX", err)
		}
		extensionRemoved = true
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.accountRepo.Delete(txCtx, account.ID); err != nil {
			return err
		}
		msg := fmt.Sprintf("Account %d (%s) deleted by admin", account.ID, account.Email)
		return f.createAuditLog(txCtx, nil, models.AuditActionAccountDeleted, msg, true, nil, metadata)
	})
	if err != nil {
		return nil, NewBusinessError("DELETE_ACCOUNT_FAILED", "Failed to delete account", err)
	}

	return &dto.AdminDeleteAccountResponse{
		Message:          "Account deleted successfully",
		AccountID:        account.ID,
		ExtensionRemoved: extensionRemoved,
	}, nil
}

// ExportAccounts builds an XLSX roster of all accounts. The workbook is
// cached in redis for the configured TTL, so a roster downloaded twice within
// the window may be slightly stale. SIP secrets never appear in the export.
func (f *AdminAccountFlowImpl) ExportAccounts(ctx context.Context) (string, []byte, error) {
	filename := fmt.Sprintf("accounts_%s.xlsx", utils.UTCNow().Format("20060102"))
	cacheKey := redisKey(*f.cacheCfg, utils.AccountRosterCacheKey)

	if f.rc != nil {
		if bs, err := f.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			return filename, bs, nil
		}
	}

	accounts, err := f.accountRepo.ByFilter(ctx, models.AccountFilter{}, "id ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_ACCOUNTS_FAILED", "Failed to fetch accounts", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "accounts"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "uuid", "email", "status", "sip_extension", "created_at", "last_login_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, a := range accounts {
		ext := ""
		if a.SipExtension != nil {
			ext = *a.SipExtension
		}
		lastLogin := ""
		if a.LastLoginAt != nil {
			lastLogin = a.LastLoginAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(a.ID), 10),
			a.UUID.String(),
			a.Email,
			a.Status,
			ext,
			a.CreatedAt.UTC().Format(time.RFC3339),
			lastLogin,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_ACCOUNTS_FAILED", "Failed to write workbook", err)
	}

	if f.rc != nil {
		_ = f.rc.Set(ctx, cacheKey, buf.Bytes(), f.cacheCfg.DefaultTTL).Err()
	}

	return filename, buf.Bytes(), nil
}

// ListTrustedIPs lists current firewall whitelist entries, soonest expiry first
func (f *AdminAccountFlowImpl) ListTrustedIPs(ctx context.Context) (*dto.AdminListTrustedIPsResponse, error) {
	entries, err := f.trustedIPRepo.ByFilter(ctx, models.TrustedIPFilter{}, "expires_at ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LIST_TRUSTED_IPS_FAILED", "Failed to list trusted IPs", err)
	}

	items := make([]dto.TrustedIPDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, ToTrustedIPDTO(*e))
	}

	return &dto.AdminListTrustedIPsResponse{
		Message: "Trusted IPs retrieved successfully",
		Items:   items,
	}, nil
}

// TrustIP whitelists an address on the PBX firewall and records the grant.
// The firewall call happens first so a recorded row always reflects a real
// remote grant.
func (f *AdminAccountFlowImpl) TrustIP(ctx context.Context, req *dto.AdminTrustIPRequest, metadata *ClientMetadata) (*dto.TrustedIPDTO, error) {
	if err := f.firewallSvc.TrustIP(ctx, req.IPAddress); err != nil {
		errMsg := fmt.Sprintf("Failed to trust ip %s: %v", req.IPAddress, err)
		_ = f.createAuditLog(ctx, req.AccountID, models.AuditActionIPTrusted, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("FIREWALL_OPERATION_FAILED", "Failed to trust IP on firewall", err)
	}

	expiresAt := utils.UTCNowAdd(f.firewallCfg.TrustTTL)
	if err := f.trustedIPRepo.Upsert(ctx, req.IPAddress, req.AccountID, expiresAt); err != nil {
		return nil, NewBusinessError("FIREWALL_OPERATION_FAILED", "Failed to record trusted IP", err)
	}

	msg := fmt.Sprintf("IP %s trusted until %s", req.IPAddress, expiresAt.Format(time.RFC3339))
	_ = f.createAuditLog(ctx, req.AccountID, models.AuditActionIPTrusted, msg, true, nil, metadata)

	entry, err := f.trustedIPRepo.ByIPAddress(ctx, req.IPAddress)
	if err != nil || entry == nil {
		return nil, NewBusinessError("FIREWALL_OPERATION_FAILED", "Failed to load trusted IP", err)
	}

	item := ToTrustedIPDTO(*entry)
	return &item, nil
}

// UntrustIP revokes a firewall grant and drops the matching row
func (f *AdminAccountFlowImpl) UntrustIP(ctx context.Context, ip string, metadata *ClientMetadata) error {
	if err := f.firewallSvc.UntrustIP(ctx, ip); err != nil {
		errMsg := fmt.Sprintf("Failed to untrust ip %s: %v", ip, err)
		_ = f.createAuditLog(ctx, nil, models.AuditActionIPUntrusted, errMsg, false, &errMsg, metadata)
		return NewBusinessError("FIREWALL_OPERATION_FAILED", "Failed to untrust IP on firewall", err)
	}

	if err := f.trustedIPRepo.DeleteByIPAddress(ctx, ip); err != nil {
		return NewBusinessError("FIREWALL_OPERATION_FAILED", "Failed to remove trusted IP record", err)
	}

	msg := fmt.Sprintf("IP %s untrusted", ip)
	_ = f.createAuditLog(ctx, nil, models.AuditActionIPUntrusted, msg, true, nil, metadata)
	return nil
}

func (f *AdminAccountFlowImpl) createAuditLog(ctx context.Context, accountID *uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:    accountID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok && requestID != "" {
		audit.RequestID = &requestID
	}

	return f.auditRepo.Save(ctx, audit)
}
