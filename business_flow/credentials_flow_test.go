package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/app/services"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCredentials(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		trustedIPRepo := repository.NewTrustedIPRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		// Initialize services
		mockFirewall := services.NewMockFirewallService()
		firewallCfg := &config.FirewallConfig{
			Enabled:  false,
			TrustTTL: time.Hour,
		}

		// Initialize business flow
		credentialsFlow := businessflow.NewCredentialsFlow(
			accountRepo,
			trustedIPRepo,
			auditRepo,
			mockFirewall,
			testSIPConfig(),
			firewallCfg,
		)

		metadata := businessflow.NewClientMetadata("198.51.100.7", "softphone/1.0")

		t.Run("ActiveAccountGetsCredentials", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			result, err := credentialsFlow.GetCredentials(context.Background(), account.ID, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, *account.SipExtension, result.Username)
			assert.Equal(t, *account.SipExtension, result.AuthUsername)
			assert.Equal(t, *account.SipSecret, result.Password)
			assert.Equal(t, account.DisplayName(), result.DisplayName)
			assert.Equal(t, "sip.example.com", result.Domain)
			assert.Equal(t, 5060, result.Port)
			assert.Equal(t, "udp", result.Transport)

			// Access is audited
			auditLogs, err := auditRepo.ByFilter(context.Background(), models.AuditLogFilter{
				AccountID: &account.ID,
			}, "", 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, auditLogs)
			assert.Equal(t, models.AuditActionCredentialsAccessed, auditLogs[0].Action)

			// The audit description never contains the secret
			for _, log := range auditLogs {
				if log.Description != nil {
					assert.NotContains(t, *log.Description, *account.SipSecret)
				}
			}
		})

		t.Run("CallerIPTrustedInBackground", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			callerMeta := businessflow.NewClientMetadata("203.0.113.42", "softphone/1.0")
			_, err = credentialsFlow.GetCredentials(context.Background(), account.ID, callerMeta)
			require.NoError(t, err)

			// The trust runs detached from the request, so poll for the row
			require.Eventually(t, func() bool {
				row, err := trustedIPRepo.ByIPAddress(context.Background(), "203.0.113.42")
				return err == nil && row != nil
			}, 2*time.Second, 50*time.Millisecond)

			row, err := trustedIPRepo.ByIPAddress(context.Background(), "203.0.113.42")
			require.NoError(t, err)
			require.NotNil(t, row)
			require.NotNil(t, row.AccountID)
			assert.Equal(t, account.ID, *row.AccountID)
			assert.True(t, row.ExpiresAt.After(time.Now().UTC()))

			assert.Contains(t, mockFirewall.TrustedIPs, "203.0.113.42")
		})

		t.Run("PendingAccountNotProvisioned", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusPendingProvision)
			require.NoError(t, err)

			result, err := credentialsFlow.GetCredentials(context.Background(), account.ID, metadata)
			require.Error(t, err)
			require.Nil(t, result)
			assert.True(t, businessflow.IsNotProvisioned(err))
		})

		t.Run("FailedAccountNotProvisioned", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusProvisionFailed)
			require.NoError(t, err)

			result, err := credentialsFlow.GetCredentials(context.Background(), account.ID, metadata)
			require.Error(t, err)
			require.Nil(t, result)
			assert.True(t, businessflow.IsNotProvisioned(err))
		})

		t.Run("AccountNotFound", func(t *testing.T) {
			result, err := credentialsFlow.GetCredentials(context.Background(), 99999, metadata)
			require.Error(t, err)
			require.Nil(t, result)
			assert.True(t, businessflow.IsAccountNotFound(err))
		})

		return nil
	})

	require.NoError(t, err)
}
