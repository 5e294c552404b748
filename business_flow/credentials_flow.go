// Package businessflow contains the core business logic and use cases for onboarding workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// CredentialsFlow hands out SIP credentials to authenticated subscribers.
// This is the only flow that ever exposes the SIP secret.
type CredentialsFlow interface {
	GetCredentials(ctx context.Context, accountID uint, metadata *ClientMetadata) (*dto.SIPCredentialsResponse, error)
}

// CredentialsFlowImpl implements the credentials business flow
type CredentialsFlowImpl struct {
	accountRepo   repository.AccountRepository
	trustedIPRepo repository.TrustedIPRepository
	auditRepo     repository.AuditLogRepository
	firewallSvc   services.FirewallService
	sipCfg        *config.SIPConfig
	firewallCfg   *config.FirewallConfig
}

// NewCredentialsFlow creates a new credentials flow instance
func NewCredentialsFlow(
	accountRepo repository.AccountRepository,
	trustedIPRepo repository.TrustedIPRepository,
	auditRepo repository.AuditLogRepository,
	firewallSvc services.FirewallService,
	sipCfg *config.SIPConfig,
	firewallCfg *config.FirewallConfig,
) CredentialsFlow {
	return &CredentialsFlowImpl{
		accountRepo:   accountRepo,
		trustedIPRepo: trustedIPRepo,
		auditRepo:     auditRepo,
		firewallSvc:   firewallSvc,
		sipCfg:        sipCfg,
		firewallCfg:   firewallCfg,
	}
}

// GetCredentials loads the SIP credentials for an account that finished
// provisioning. The accountID comes from a verified token, never from the
// request body. The caller IP is trusted through the PBX firewall in the
// background so the softphone can register right away.
func (s *CredentialsFlowImpl) GetCredentials(ctx context.Context, accountID uint, metadata *ClientMetadata) (*dto.SIPCredentialsResponse, error) {
	account, err := s.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return nil, NewBusinessError("CREDENTIALS_FETCH_FAILED", "Failed to fetch credentials", err)
	}
	if account == nil {
		return nil, NewBusinessError("ACCOUNT_NOT_FOUND", "Account not found", ErrAccountNotFound)
	}
	if !account.IsActive() || !account.IsProvisioned() {
		return nil, NewBusinessError("NOT_PROVISIONED", "Account has no provisioned extension", ErrNotProvisioned)
	}

	msg := fmt.Sprintf("SIP credentials accessed for account %d", account.ID)
	_ = s.createAuditLog(ctx, account, models.AuditActionCredentialsAccessed, msg, true, metadata)

	if metadata != nil && metadata.IPAddress != "" {
		go s.trustCallerIP(account.ID, metadata.IPAddress, metadata)
	}

	return &dto.SIPCredentialsResponse{
		Username:     *account.SipExtension,
		Password:     *account.SipSecret,
		AuthUsername: *account.SipExtension,
		DisplayName:  account.DisplayName(),
		Domain:       s.sipCfg.Domain,
		Port:         s.sipCfg.Port,
		Transport:    s.sipCfg.Transport,
	}, nil
}

// trustCallerIP whitelists the caller on the PBX firewall and records the
// grant with its expiry. Best effort: a firewall hiccup must not block the
// credentials response, so this runs detached from the request.
func (s *CredentialsFlowImpl) trustCallerIP(accountID uint, ip string, metadata *ClientMetadata) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.firewallSvc.TrustIP(ctx, ip); err != nil {
		errMsg := fmt.Sprintf("Failed to trust ip for account %d: %v", accountID, err)
		audit := &models.AuditLog{
			AccountID:    &accountID,
			Action:       models.AuditActionIPTrusted,
			Description:  &errMsg,
			Success:      utils.ToPtr(false),
			IPAddress:    &ip,
			ErrorMessage: &errMsg,
		}
		_ = s.auditRepo.Save(ctx, audit)
		return
	}

	expiresAt := utils.UTCNowAdd(s.firewallCfg.TrustTTL)
	if err := s.trustedIPRepo.Upsert(ctx, ip, &accountID, expiresAt); err != nil {
		errMsg := fmt.Sprintf("Failed to record trusted ip for account %d: %v", accountID, err)
		audit := &models.AuditLog{
			AccountID:    &accountID,
			Action:       models.AuditActionIPTrusted,
			Description:  &errMsg,
			Success:      utils.ToPtr(false),
			IPAddress:    &ip,
			ErrorMessage: &errMsg,
		}
		_ = s.auditRepo.Save(ctx, audit)
		return
	}

	msg := fmt.Sprintf("Trusted ip for account %d until %s", accountID, expiresAt.Format(time.RFC3339))
	audit := &models.AuditLog{
		AccountID:   &accountID,
		Action:      models.AuditActionIPTrusted,
		Description: &msg,
		Success:     utils.ToPtr(true),
		IPAddress:   &ip,
	}
	if metadata != nil && metadata.UserAgent != "" {
		audit.UserAgent = &metadata.UserAgent
	}
	_ = s.auditRepo.Save(ctx, audit)
}

func (s *CredentialsFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, metadata *ClientMetadata) error {
	var accountID *uint
	if account != nil {
		accountID = &account.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(success),
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if requestID, ok := ctx.Value(utils.RequestIDKey).(string); ok && requestID != "" {
		audit.RequestID = &requestID
	}

	return s.auditRepo.Save(ctx, audit)
}
