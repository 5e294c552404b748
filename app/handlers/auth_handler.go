// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Register(c fiber.Ctx) error
	Login(c fiber.Ctx) error
}

// AuthHandler handles registration and login HTTP requests
type AuthHandler struct {
	registrationFlow businessflow.RegistrationFlow
	loginFlow        businessflow.LoginFlow
	validator        *validator.Validate
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
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

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(registrationFlow businessflow.RegistrationFlow, loginFlow businessflow.LoginFlow) *AuthHandler {
	handler := &AuthHandler{
		registrationFlow: registrationFlow,
		loginFlow:        loginFlow,
		validator:        validator.New(),
	}

	// Setup custom validations
	handler.setupCustomValidations()

	return handler
}

// Register handles subscriber registration and extension provisioning
// @Summary Subscriber Registration
// @Description Register a new subscriber and provision a SIP extension on the PBX
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Subscriber registration data"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterResponse} "Account registered and provisioned"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Account already exists"
// @Failure 503 {object} dto.APIResponse "Extension provisioning failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	ipAddress := c.IP()
	userAgent := c.Get("User-Agent")
	metadata := businessflow.NewClientMetadata(ipAddress, userAgent)

	// Call business logic with a context that outlives the PBX overall
	// deadline, so provisioning always runs to an outcome.
	ctx, cancel := createRequestContextWithTimeout(c, 45*time.Second)
	defer cancel()
	result, err := h.registrationFlow.Register(ctx, &req, metadata)
	if err != nil {
		// Handle specific business errors
		if businessflow.IsDuplicateAccount(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "An account with this email already exists", "DUPLICATE_ACCOUNT", nil)
		}
		var provisionErr *services.ProvisionError
		if errors.As(err, &provisionErr) {
			return h.ErrorResponse(c, fiber.StatusServiceUnavailable, "Failed to provision SIP extension", "PROVISIONING_FAILED", fiber.Map{
				"reason": string(provisionErr.Reason),
			})
		}

		log.Println("Registration failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Registration failed", "REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, fiber.Map{
		"account": result.Account,
	})
}

// Login handles subscriber authentication
// @Summary Subscriber Login
// @Description Authenticate a subscriber with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=object{access_token=string,token_type=string,expires_in=int,account=dto.AccountDTO}} "Login successful"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Invalid credentials"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	// Validate request
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	// Get client information
	ipAddress := c.IP()
	userAgent := c.Get("User-Agent")
	metadata := businessflow.NewClientMetadata(ipAddress, userAgent)

	// Call business logic with proper context
	ctx, cancel := h.createRequestContext(c)
	defer cancel()
	result, err := h.loginFlow.Login(ctx, &req, metadata)
	if err != nil {
		// Every credential failure maps to the same response
		if businessflow.IsInvalidCredentials(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect email or password", "INVALID_CREDENTIALS", nil)
		}

		log.Println("Login failed", err)
		// Handle generic business errors
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	// Successful login - return token and account info
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", fiber.Map{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"expires_in":   result.ExpiresIn,
		"account":      result.Account,
	})
}

// createRequestContext creates a context with request-scoped values for observability and timeout
func (h *AuthHandler) createRequestContext(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return createRequestContextWithTimeout(c, 30*time.Second)
}

// Custom validation setup
func (h *AuthHandler) setupCustomValidations() {
	// Register custom validation for password strength
	h.validator.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()

		hasUpper := false
		hasNumber := false

		for _, char := range value {
			if char >= 'A' && char <= 'Z' {
				hasUpper = true
			}
			if char >= '0' && char <= '9' {
				hasNumber = true
			}
		}

		return hasUpper && hasNumber
	})
}

// createRequestContextWithTimeout creates a context detached from the HTTP
// request with a custom timeout and request-scoped values. Detaching matters
// for registration: a subscriber disconnecting must not cancel provisioning
// mid-flight, or the reservation would be stuck without an outcome.
func createRequestContextWithTimeout(c fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	return ctx, cancel
}
