package businessflow_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestAdminAccountManagement(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		// Initialize repositories
		accountRepo := repository.NewAccountRepository(testDB.DB)
		trustedIPRepo := repository.NewTrustedIPRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		// Initialize services
		mockPBX := services.NewMockPBXClient()
		mockFirewall := services.NewMockFirewallService()
		cacheCfg := &config.CacheConfig{RedisPrefix: "susanoo_test", DefaultTTL: time.Minute}
		firewallCfg := &config.FirewallConfig{Enabled: false, TrustTTL: time.Hour}

		// Initialize business flow. No redis in these tests; export builds fresh.
		adminAccountFlow := businessflow.NewAdminAccountFlow(
			testDB.DB,
			accountRepo,
			trustedIPRepo,
			auditRepo,
			mockPBX,
			mockFirewall,
			nil,
			cacheCfg,
			firewallCfg,
		)

		metadata := businessflow.NewClientMetadata("192.0.2.40", "admin-console/1.0")

		t.Run("ListAccountsFiltersByStatus", func(t *testing.T) {
			_, err := fixtures.CreateMultipleTestAccounts()
			require.NoError(t, err)

			all, err := adminAccountFlow.ListAccounts(context.Background(), nil)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, all.Total, int64(3))

			failed, err := adminAccountFlow.ListAccounts(context.Background(), &dto.AdminListAccountsRequest{
				Status: utils.ToPtr(models.AccountStatusProvisionFailed),
			})
			require.NoError(t, err)
			require.NotEmpty(t, failed.Items)
			for _, item := range failed.Items {
				assert.Equal(t, models.AccountStatusProvisionFailed, item.Status)
			}
		})

		t.Run("ListAccountsPaginates", func(t *testing.T) {
			for i := 0; i < 5; i++ {
				_, err := fixtures.CreateTestAccount(models.AccountStatusActive)
				require.NoError(t, err)
			}

			page, err := adminAccountFlow.ListAccounts(context.Background(), &dto.AdminListAccountsRequest{
				Page:     1,
				PageSize: 2,
			})
			require.NoError(t, err)
			assert.Len(t, page.Items, 2)
			assert.Equal(t, 1, page.Page)
			assert.Equal(t, 2, page.PageSize)
			assert.Greater(t, page.Total, int64(2))
		})

		t.Run("GetAccountDetail", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			detail, err := adminAccountFlow.GetAccount(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, detail)
			assert.Equal(t, account.Email, detail.Email)
			assert.Equal(t, account.UUID.String(), detail.UUID)
			require.NotNil(t, detail.SipExtension)
		})

		t.Run("GetAccountNotFound", func(t *testing.T) {
			detail, err := adminAccountFlow.GetAccount(context.Background(), 99999)
			require.Error(t, err)
			require.Nil(t, detail)
			assert.True(t, businessflow.IsAccountNotFound(err))
		})

		t.Run("DeleteActiveAccountRemovesExtension", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)
			require.NotNil(t, account.SipExtension)

			result, err := adminAccountFlow.DeleteAccount(context.Background(), account.ID, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.ExtensionRemoved)
			assert.Contains(t, mockPBX.RemoveCalls, *account.SipExtension)

			gone, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		t.Run("DeleteStuckReservation", func(t *testing.T) {
			// Rows stuck in pending_provision have no extension; deletion is
			// pure database cleanup.
			account, err := fixtures.CreateTestAccount(models.AccountStatusPendingProvision)
			require.NoError(t, err)

			removeCallsBefore := len(mockPBX.RemoveCalls)

			result, err := adminAccountFlow.DeleteAccount(context.Background(), account.ID, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.False(t, result.ExtensionRemoved)
			assert.Len(t, mockPBX.RemoveCalls, removeCallsBefore)

			gone, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		t.Run("DeleteKeepsRowWhenPBXRefuses", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			mockPBX.RemoveFailWith = errors.New("pbx unreachable")
			defer func() { mockPBX.RemoveFailWith = nil }()

			result, err := adminAccountFlow.DeleteAccount(context.Background(), account.ID, metadata)
			require.Error(t, err)
			require.Nil(t, result)

			// The row survives so the operator can retry
			still, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, still)
			assert.Equal(t, models.AccountStatusActive, still.Status)
		})

		t.Run("ExportAccountsBuildsWorkbook", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			filename, data, err := adminAccountFlow.ExportAccounts(context.Background())
			require.NoError(t, err)
			assert.Contains(t, filename, "accounts_")
			assert.Contains(t, filename, ".xlsx")
			require.NotEmpty(t, data)

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = xl.Close() }()

			rows, err := xl.GetRows("accounts")
			require.NoError(t, err)
			require.NotEmpty(t, rows)
			assert.Equal(t, []string{"id", "uuid", "email", "status", "sip_extension", "created_at", "last_login_at"}, rows[0])
			assert.GreaterOrEqual(t, len(rows), 2)

			// The secret column does not exist; no cell may carry the secret
			require.NotNil(t, account.SipSecret)
			for _, row := range rows {
				for _, cell := range row {
					assert.NotEqual(t, *account.SipSecret, cell)
				}
			}
		})

		t.Run("TrustIPRecordsGrant", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			item, err := adminAccountFlow.TrustIP(context.Background(), &dto.AdminTrustIPRequest{
				IPAddress: "203.0.113.10",
				AccountID: &account.ID,
			}, metadata)
			require.NoError(t, err)
			require.NotNil(t, item)
			assert.Equal(t, "203.0.113.10", item.IPAddress)
			assert.True(t, item.ExpiresAt.After(time.Now().UTC()))
			assert.Contains(t, mockFirewall.TrustedIPs, "203.0.113.10")

			listed, err := adminAccountFlow.ListTrustedIPs(context.Background())
			require.NoError(t, err)
			require.NotEmpty(t, listed.Items)
		})

		t.Run("TrustIPFirewallFailureLeavesNoRow", func(t *testing.T) {
			mockFirewall.FailWith = errors.New("ssh unreachable")
			defer func() { mockFirewall.FailWith = nil }()

			item, err := adminAccountFlow.TrustIP(context.Background(), &dto.AdminTrustIPRequest{
				IPAddress: "203.0.113.20",
			}, metadata)
			require.Error(t, err)
			require.Nil(t, item)

			row, err := trustedIPRepo.ByIPAddress(context.Background(), "203.0.113.20")
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("UntrustIPRemovesRow", func(t *testing.T) {
			_, err := adminAccountFlow.TrustIP(context.Background(), &dto.AdminTrustIPRequest{
				IPAddress: "203.0.113.30",
			}, metadata)
			require.NoError(t, err)

			err = adminAccountFlow.UntrustIP(context.Background(), "203.0.113.30", metadata)
			require.NoError(t, err)
			assert.Contains(t, mockFirewall.UntrustedIPs, "203.0.113.30")

			row, err := trustedIPRepo.ByIPAddress(context.Background(), "203.0.113.30")
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		return nil
	})

	require.NoError(t, err)
}
