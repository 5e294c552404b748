// Package businessflow contains the core business logic and use cases for onboarding workflows
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegistrationFlow handles subscriber onboarding: reserving the account,
// provisioning the SIP extension on the PBX, and finalizing the account.
type RegistrationFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error)
}

// RegistrationFlowImpl implements the registration business flow
type RegistrationFlowImpl struct {
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditLogRepository
	passwordSvc services.PasswordService
	pbxClient   services.PBXClient
	sipCfg      *config.SIPConfig
	db          *gorm.DB
}

// NewRegistrationFlow creates a new registration flow instance
func NewRegistrationFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	passwordSvc services.PasswordService,
	pbxClient services.PBXClient,
	sipCfg *config.SIPConfig,
	db *gorm.DB,
) RegistrationFlow {
	return &RegistrationFlowImpl{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		passwordSvc: passwordSvc,
		pbxClient:   pbxClient,
		sipCfg:      sipCfg,
		db:          db,
	}
}

// Register runs the two-step onboarding commit: reserve the account row in
// pending_provision, allocate the extension on the PBX, then finalize to
// active. A provisioning failure leaves the row in provision_failed so the
// email reservation survives; it is never rolled back.
func (s *RegistrationFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hashedPassword, err := s.passwordSvc.Hash(req.Password)
	if err != nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	// Step 1: reserve the account. The unique index on email is the only
	// duplicate check; a conflicting insert fails here before any PBX call.
	var account *models.Account
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		account = &models.Account{
			UUID:         uuid.New(),
			Email:        email,
			PasswordHash: hashedPassword,
			Status:       models.AccountStatusPendingProvision,
		}
		return s.accountRepo.Save(txCtx, account)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, NewBusinessError("DUPLICATE_ACCOUNT", "An account with this email already exists", ErrDuplicateAccount)
		}
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("Account %d reserved for provisioning", account.ID)
	_ = s.createAuditLog(ctx, account, models.AuditActionRegisterInitiated, msg, true, nil, metadata)

	// Step 2: allocate the extension. The proposal is derived from the
	// account id, so retried attempts always target the same number.
	extension := strconv.Itoa(s.sipCfg.ExtensionStart + int(account.ID))
	allocation, err := s.pbxClient.AllocateExtension(ctx, extension, account.DisplayName())
	if err != nil {
		// Step 3b: keep the reservation, mark it failed. The row blocks
		// silent email reuse and is cleaned up through the admin surface.
		if uerr := s.accountRepo.UpdateStatus(ctx, account.ID, models.AccountStatusProvisionFailed); uerr != nil {
			errMsg := fmt.Sprintf("Failed to mark account as provision_failed: %v", uerr)
			_ = s.createAuditLog(ctx, account, models.AuditActionProvisionFailed, errMsg, false, &errMsg, metadata)
			return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", uerr)
		}

		errMsg := fmt.Sprintf("Extension %s allocation failed: %v", extension, err)
		_ = s.createAuditLog(ctx, account, models.AuditActionProvisionFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PROVISIONING_FAILED", "Extension provisioning failed", err)
	}

	// Step 3a: finalize. Extension and secret land together with the flip
	// to active in a single update.
	if err := s.accountRepo.UpdateProvisioned(ctx, account.ID, allocation.Extension, allocation.Secret); err != nil {
		errMsg := fmt.Sprintf("Failed to finalize account %d after allocation: %v", account.ID, err)
		_ = s.createAuditLog(ctx, account, models.AuditActionProvisionFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	account, err = s.accountRepo.ByID(ctx, account.ID)
	if err != nil || account == nil {
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	msg = fmt.Sprintf("Account %d provisioned with extension %s", account.ID, allocation.Extension)
	_ = s.createAuditLog(ctx, account, models.AuditActionRegisterCompleted, msg, true, nil, metadata)

	return &dto.RegisterResponse{
		Message: "Registration completed successfully",
		Account: ToAccountDTO(*account),
	}, nil
}

func (s *RegistrationFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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

	return s.auditRepo.Save(ctx, audit)
}
