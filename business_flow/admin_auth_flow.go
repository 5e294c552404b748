// Package businessflow contains the core business logic and use cases for onboarding workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	"github.com/amirphl/Susanoo/utils"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error)
	Verify(ctx context.Context, req *dto.AdminCaptchaVerifyRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
}

// AdminAuthFlowImpl provides captcha-init and admin credential verification
type AdminAuthFlowImpl struct {
	adminRepo   repository.AdminRepository
	auditRepo   repository.AuditLogRepository
	passwordSvc services.PasswordService
	tokenSvc    services.TokenService
	captchaSvc  services.CaptchaService

	// dummyDigest keeps the unknown-username path as expensive as a real
	// password check.
	dummyDigest string
}

func NewAdminAuthFlow(
	adminRepo repository.AdminRepository,
	auditRepo repository.AuditLogRepository,
	passwordSvc services.PasswordService,
	tokenSvc services.TokenService,
	captchaSvc services.CaptchaService,
) AdminAuthFlow {
	dummyDigest, _ := passwordSvc.Hash("admin-login-latency-padding")

	return &AdminAuthFlowImpl{
		adminRepo:   adminRepo,
		auditRepo:   auditRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		captchaSvc:  captchaSvc,
		dummyDigest: dummyDigest,
	}
}

func (af *AdminAuthFlowImpl) InitCaptcha(ctx context.Context) (*dto.AdminCaptchaInitResponse, error) {
	if af.captchaSvc == nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Captcha service not available", nil)
	}
	ch, err := af.captchaSvc.GenerateRotate(ctx)
	if err != nil {
		return nil, NewBusinessError("CAPTCHA_INIT_FAILED", "Failed to initialize captcha", err)
	}
	return &dto.AdminCaptchaInitResponse{
		ChallengeID:       ch.ID,
		MasterImageBase64: ch.MasterImageBase64,
		ThumbImageBase64:  ch.ThumbImageBase64,
	}, nil
}

// Verify checks the captcha solution and the admin credentials. Like the
// subscriber login, an unknown username, a wrong password, and a disabled
// admin are indistinguishable to the caller.
func (af *AdminAuthFlowImpl) Verify(ctx context.Context, req *dto.AdminCaptchaVerifyRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if af.captchaSvc == nil || !af.captchaSvc.VerifyRotate(ctx, req.ChallengeID, req.UserAngle) {
		return nil, NewBusinessError("CAPTCHA_INVALID", "Captcha validation failed", ErrInvalidCaptcha)
	}

	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", err)
	}

	digest := af.dummyDigest
	if admin != nil {
		digest = admin.PasswordHash
	}
	verifyErr := af.passwordSvc.Verify(digest, req.Password)

	if admin == nil || verifyErr != nil || !admin.CanLogin() {
		errMsg := fmt.Sprintf("Admin login rejected for username %q", req.Username)
		_ = af.createAuditLog(ctx, models.AuditActionAdminLoginFailed, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Incorrect username or password", ErrInvalidCredentials)
	}

	accessToken, err := af.tokenSvc.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, NewBusinessError("ADMIN_LOGIN_FAILED", "Admin login failed", err)
	}

	_ = af.adminRepo.UpdateLastLogin(ctx, admin.ID, utils.UTCNow())

	msg := fmt.Sprintf("Admin %d logged in", admin.ID)
	_ = af.createAuditLog(ctx, models.AuditActionAdminLoginSuccess, msg, true, nil, metadata)

	return &dto.AdminLoginResponse{
		Admin:   ToAdminDTO(*admin),
		Session: ToAdminSessionDTO(accessToken, af.tokenSvc.AdminTokenTTL()),
	}, nil
}

func (af *AdminAuthFlowImpl) createAuditLog(ctx context.Context, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
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

	return af.auditRepo.Save(ctx, audit)
}
