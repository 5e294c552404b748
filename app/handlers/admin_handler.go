// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AdminHandlerInterface defines the contract for admin handlers
type AdminHandlerInterface interface {
	InitCaptcha(c fiber.Ctx) error
	VerifyLogin(c fiber.Ctx) error
	ListAccounts(c fiber.Ctx) error
	GetAccount(c fiber.Ctx) error
	DeleteAccount(c fiber.Ctx) error
	ExportAccounts(c fiber.Ctx) error
	ListTrustedIPs(c fiber.Ctx) error
	TrustIP(c fiber.Ctx) error
	UntrustIP(c fiber.Ctx) error
}

// AdminHandler implements AdminHandlerInterface
type AdminHandler struct {
	authFlow    businessflow.AdminAuthFlow
	accountFlow businessflow.AdminAccountFlow
	validator   *validator.Validate
}

// ErrorResponse standard JSON error
func (h *AdminHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: &dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
		RequestID: c.Get("X-Request-ID"),
	})
}

// SuccessResponse standard JSON success
func (h *AdminHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func NewAdminHandler(authFlow businessflow.AdminAuthFlow, accountFlow businessflow.AdminAccountFlow) AdminHandlerInterface {
	return &AdminHandler{
		authFlow:    authFlow,
		accountFlow: accountFlow,
		validator:   validator.New(),
	}
}

// InitCaptcha starts the admin login by returning a rotate captcha challenge
// @Summary Admin captcha init
// @Description Initialize rotate captcha for admin login (returns base64 images and challenge ID)
// @Tags Admin
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AdminCaptchaInitResponse} "Captcha initialized"
// @Failure 500 {object} dto.APIResponse "Failed to initialize captcha"
// @Router /api/v1/admin/auth/captcha/init [get]
func (h *AdminHandler) InitCaptcha(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	resp, err := h.authFlow.InitCaptcha(ctx)
	if err != nil {
		log.Println("Admin captcha init failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Admin captcha init failed", "ADMIN_CAPTCHA_INIT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Captcha initialized", resp)
}

// VerifyLogin completes admin login by verifying captcha and credentials
// @Summary Admin login
// @Description Verify captcha and authenticate admin with username/password
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body dto.AdminCaptchaVerifyRequest true "Admin login data"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Invalid request or captcha"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/auth/login [post]
func (h *AdminHandler) VerifyLogin(c fiber.Ctx) error {
	var req dto.AdminCaptchaVerifyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	result, err := h.authFlow.Verify(ctx, &req, metadata)
	if err != nil {
		if businessflow.IsInvalidCaptcha(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid captcha", "INVALID_CAPTCHA", nil)
		}
		if businessflow.IsInvalidCredentials(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect username or password", "INVALID_CREDENTIALS", nil)
		}
		log.Println("Admin login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", fiber.Map{
		"admin":   result.Admin,
		"session": result.Session,
	})
}

// ListAccounts returns a filtered, paginated account roster
// @Summary Admin list accounts
// @Description List subscriber accounts with optional status/email filters and pagination
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminListAccountsRequest true "Filters and pagination"
// @Success 200 {object} dto.APIResponse{data=dto.AdminListAccountsResponse} "Accounts retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/accounts/list [post]
func (h *AdminHandler) ListAccounts(c fiber.Ctx) error {
	var req dto.AdminListAccountsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	res, err := h.accountFlow.ListAccounts(ctx, &req)
	if err != nil {
		log.Println("Admin list accounts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list accounts", "LIST_ACCOUNTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// GetAccount returns full details of one account
// @Summary Admin get account
// @Description Retrieve one subscriber account by ID
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param account_id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminAccountDetailDTO} "Account retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid account_id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/accounts/{account_id} [get]
func (h *AdminHandler) GetAccount(c fiber.Ctx) error {
	idStr := c.Params("account_id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account_id", "VALIDATION_ERROR", nil)
	}

	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	res, err := h.accountFlow.GetAccount(ctx, uint(id))
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		log.Println("Admin get account failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get account", "GET_ACCOUNT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Account retrieved successfully", res)
}

// DeleteAccount removes an account and its PBX extension
// @Summary Admin delete account
// @Description Delete a subscriber account, removing its extension from the PBX first. Used to clear accounts stuck in pending_provision or provision_failed.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param account_id path int true "Account ID"
// @Success 200 {object} dto.APIResponse{data=dto.AdminDeleteAccountResponse} "Account deleted"
// @Failure 400 {object} dto.APIResponse "Invalid account_id"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Account not found"
// @Failure 502 {object} dto.APIResponse "PBX extension removal failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/accounts/{account_id} [delete]
func (h *AdminHandler) DeleteAccount(c fiber.Ctx) error {
	idStr := c.Params("account_id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid account_id", "VALIDATION_ERROR", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	res, err := h.accountFlow.DeleteAccount(ctx, uint(id), metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		var bizErr *businessflow.BusinessError
		if errors.As(err, &bizErr) && bizErr.Code == "EXTENSION_REMOVAL_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Failed to remove extension from PBX", "EXTENSION_REMOVAL_FAILED", nil)
		}
		log.Println("Admin delete account failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete account", "DELETE_ACCOUNT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// ExportAccounts downloads the account roster as an Excel workbook
// @Summary Admin export accounts
// @Description Download an XLSX roster of all accounts (no SIP secrets)
// @Tags Admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary "XLSX roster"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/accounts/export [get]
func (h *AdminHandler) ExportAccounts(c fiber.Ctx) error {
	// Building the workbook scans the whole roster, so give it more room
	ctx, cancel := createRequestContextWithTimeout(c, 60*time.Second)
	defer cancel()
	filename, data, err := h.accountFlow.ExportAccounts(ctx)
	if err != nil {
		log.Println("Admin export accounts failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export accounts", "EXPORT_ACCOUNTS_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// ListTrustedIPs lists firewall whitelist entries
// @Summary Admin list trusted IPs
// @Description List addresses currently trusted through the PBX firewall
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminListTrustedIPsResponse} "Trusted IPs retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/trusted-ips [get]
func (h *AdminHandler) ListTrustedIPs(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	res, err := h.accountFlow.ListTrustedIPs(ctx)
	if err != nil {
		log.Println("Admin list trusted IPs failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list trusted IPs", "LIST_TRUSTED_IPS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, res.Message, res)
}

// TrustIP whitelists an address on the PBX firewall
// @Summary Admin trust IP
// @Description Trust an address through the PBX firewall for SIP traffic
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminTrustIPRequest true "Address to trust"
// @Success 200 {object} dto.APIResponse{data=dto.TrustedIPDTO} "IP trusted"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 502 {object} dto.APIResponse "Firewall operation failed"
// @Router /api/v1/admin/trusted-ips [post]
func (h *AdminHandler) TrustIP(c fiber.Ctx) error {
	var req dto.AdminTrustIPRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	res, err := h.accountFlow.TrustIP(ctx, &req, metadata)
	if err != nil {
		log.Println("Admin trust IP failed", err)
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Failed to trust IP", "FIREWALL_OPERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "IP trusted successfully", res)
}

// UntrustIP revokes a firewall grant
// @Summary Admin untrust IP
// @Description Remove an address from the PBX firewall whitelist
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminTrustIPRequest true "Address to untrust"
// @Success 200 {object} dto.APIResponse "IP untrusted"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 502 {object} dto.APIResponse "Firewall operation failed"
// @Router /api/v1/admin/trusted-ips/untrust [post]
func (h *AdminHandler) UntrustIP(c fiber.Ctx) error {
	var req dto.AdminTrustIPRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	if err := h.accountFlow.UntrustIP(ctx, req.IPAddress, metadata); err != nil {
		log.Println("Admin untrust IP failed", err)
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Failed to untrust IP", "FIREWALL_OPERATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "IP untrusted successfully", nil)
}

func (h *AdminHandler) createRequestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return createRequestContextWithTimeout(c, 30*time.Second)
}
