// Package businessflow contains the core business logic and use cases for onboarding workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Account-related errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("an account with this email already exists")
	ErrNotProvisioned   = errors.New("account has no provisioned extension")

	// ErrInvalidCredentials covers every login failure: unknown email, wrong
	// password, and accounts that never finished provisioning. Collapsing
	// them keeps login responses identical so emails cannot be enumerated.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// Admin-related errors
	ErrInvalidCaptcha = errors.New("invalid captcha")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

func IsDuplicateAccount(err error) bool {
	return errors.Is(err, ErrDuplicateAccount)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsNotProvisioned(err error) bool {
	return errors.Is(err, ErrNotProvisioned)
}

func IsInvalidCaptcha(err error) bool {
	return errors.Is(err, ErrInvalidCaptcha)
}
