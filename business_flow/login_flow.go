// Package businessflow contains the core business logic and use cases for onboarding workflows
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// LoginFlow handles subscriber authentication
type LoginFlow interface {
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	accountRepo repository.AccountRepository
	auditRepo   repository.AuditLogRepository
	passwordSvc services.PasswordService
	tokenSvc    services.TokenService

	// dummyDigest is verified against when no account matches the email, so
	// the unknown-email path costs one bcrypt comparison like every other
	// failure path.
	dummyDigest string
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	accountRepo repository.AccountRepository,
	auditRepo repository.AuditLogRepository,
	passwordSvc services.PasswordService,
	tokenSvc services.TokenService,
) LoginFlow {
	dummyDigest, _ := passwordSvc.Hash("login-latency-padding")

	return &LoginFlowImpl{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		dummyDigest: dummyDigest,
	}
}

// Login authenticates a subscriber and issues an access token. Unknown
// emails, wrong passwords, and accounts that are not active all produce the
// same error with the same response shape and approximately the same cost.
func (s *LoginFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	account, err := s.accountRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	digest := s.dummyDigest
	if account != nil {
		digest = account.PasswordHash
	}
	verifyErr := s.passwordSvc.Verify(digest, req.Password)

	if account == nil || verifyErr != nil || !account.IsActive() {
		errMsg := "Login rejected"
		_ = s.createAuditLog(ctx, account, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Incorrect email or password", ErrInvalidCredentials)
	}

	accessToken, err := s.tokenSvc.GenerateAccessToken(account.ID)
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	_ = s.accountRepo.UpdateLastLogin(ctx, account.ID, utils.UTCNow())

	msg := fmt.Sprintf("Account %d logged in", account.ID)
	_ = s.createAuditLog(ctx, account, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return &dto.LoginResponse{
		Message:     "Login successful",
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenSvc.AccessTokenTTL().Seconds()),
		Account:     ToAccountDTO(*account),
	}, nil
}

func (s *LoginFlowImpl) createAuditLog(ctx context.Context, account *models.Account, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
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
