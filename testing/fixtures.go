// Package testing provides test utilities and database setup for testing the onboarding system
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates a test account in the given lifecycle status.
// Active accounts get a SIP extension and secret, matching what provisioning
// would have produced.
func (tf *TestFixtures) CreateTestAccount(status string) (*models.Account, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123"), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := rand.Intn(100000000)
	account := &models.Account{
		UUID:         uuid.New(),
		Email:        fmt.Sprintf("subscriber.%d@example.com", suffix),
		PasswordHash: string(hashedPassword),
		Status:       status,
	}

	if status == models.AccountStatusActive {
		account.SipExtension = utils.ToPtr(fmt.Sprintf("%d", 1000+suffix%900000))
		account.SipSecret = utils.ToPtr(fmt.Sprintf("secret-%d", suffix))
	}

	err = tf.DB.DB.Create(account).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateTestAdmin creates an active operator account with the given password
func (tf *TestFixtures) CreateTestAdmin(password string) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("operator%d", rand.Intn(100000000)),
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	err = tf.DB.DB.Create(admin).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateTestTrustedIP creates a trusted IP row expiring at the given time
func (tf *TestFixtures) CreateTestTrustedIP(ip string, accountID *uint, expiresAt time.Time) (*models.TrustedIP, error) {
	row := &models.TrustedIP{
		IPAddress: ip,
		AccountID: accountID,
		ExpiresAt: expiresAt,
	}

	err := tf.DB.DB.Create(row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test trusted IP: %w", err)
	}

	return row, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(accountID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		AccountID:   accountID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	err := tf.DB.DB.Create(audit).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateMultipleTestAccounts creates accounts across all lifecycle states for list and filter tests
func (tf *TestFixtures) CreateMultipleTestAccounts() ([]*models.Account, error) {
	statuses := []string{
		models.AccountStatusActive,
		models.AccountStatusPendingProvision,
		models.AccountStatusProvisionFailed,
	}

	var accounts []*models.Account
	for i, status := range statuses {
		account, err := tf.CreateTestAccount(status)
		if err != nil {
			return nil, fmt.Errorf("failed to create account %d: %w", i, err)
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}
