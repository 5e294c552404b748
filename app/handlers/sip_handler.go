package handlers

import (
	"context"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/middleware"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/gofiber/fiber/v3"
)

type SIPHandlerInterface interface {
	GetCredentials(c fiber.Ctx) error
}

type SIPHandler struct {
	flow businessflow.CredentialsFlow
}

func NewSIPHandler(flow businessflow.CredentialsFlow) *SIPHandler {
	return &SIPHandler{flow: flow}
}

func (h *SIPHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
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

func (h *SIPHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetCredentials returns the authenticated subscriber's SIP credentials
// @Summary Get SIP credentials
// @Description Retrieve everything needed to configure a SIP softphone: extension, secret, domain, port, and transport
// @Tags SIP
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SIPCredentialsResponse} "Credentials retrieved successfully"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 409 {object} dto.APIResponse "Account not provisioned"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/sip/credentials [get]
func (h *SIPHandler) GetCredentials(c fiber.Ctx) error {
	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account ID not found in context", "MISSING_ACCOUNT_ID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	res, err := h.flow.GetCredentials(ctx, accountID, metadata)
	if err != nil {
		if businessflow.IsAccountNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Account not found", "ACCOUNT_NOT_FOUND", nil)
		}
		if businessflow.IsNotProvisioned(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Account has no provisioned extension", "NOT_PROVISIONED", nil)
		}

		log.Println("Get credentials failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get credentials", "GET_CREDENTIALS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "SIP credentials retrieved successfully", res)
}

func (h *SIPHandler) createRequestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return createRequestContextWithTimeout(c, 30*time.Second)
}
