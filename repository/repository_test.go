package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		accountRepo := repository.NewAccountRepository(testDB.DB)

		t.Run("SaveAndRetrieve", func(t *testing.T) {
			account := &models.Account{
				UUID:         uuid.New(),
				Email:        "save@example.com",
				PasswordHash: "$2a$04$fakehashfortest",
				Status:       models.AccountStatusPendingProvision,
			}

			err := accountRepo.Save(context.Background(), account)
			require.NoError(t, err)
			assert.NotZero(t, account.ID)

			byID, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, byID)
			assert.Equal(t, "save@example.com", byID.Email)
			assert.Equal(t, models.AccountStatusPendingProvision, byID.Status)

			byEmail, err := accountRepo.ByEmail(context.Background(), "save@example.com")
			require.NoError(t, err)
			require.NotNil(t, byEmail)
			assert.Equal(t, account.ID, byEmail.ID)

			byUUID, err := accountRepo.ByUUID(context.Background(), account.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, byUUID)
			assert.Equal(t, account.ID, byUUID.ID)
		})

		t.Run("NotFoundIsNil", func(t *testing.T) {
			account, err := accountRepo.ByEmail(context.Background(), "missing@example.com")
			require.NoError(t, err)
			assert.Nil(t, account)

			account, err = accountRepo.ByID(context.Background(), 99999)
			require.NoError(t, err)
			assert.Nil(t, account)
		})

		t.Run("DuplicateEmailIsSentinel", func(t *testing.T) {
			existing, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			dup := &models.Account{
				UUID:         uuid.New(),
				Email:        existing.Email,
				PasswordHash: "$2a$04$fakehashfortest",
				Status:       models.AccountStatusPendingProvision,
			}

			err = accountRepo.Save(context.Background(), dup)
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
		})

		t.Run("UpdateProvisionedActivates", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusPendingProvision)
			require.NoError(t, err)

			err = accountRepo.UpdateProvisioned(context.Background(), account.ID, "7001", "s3cretvalue12345")
			require.NoError(t, err)

			updated, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, models.AccountStatusActive, updated.Status)
			require.NotNil(t, updated.SipExtension)
			require.NotNil(t, updated.SipSecret)
			assert.Equal(t, "7001", *updated.SipExtension)
			assert.True(t, updated.IsProvisioned())

			byExtension, err := accountRepo.BySipExtension(context.Background(), "7001")
			require.NoError(t, err)
			require.NotNil(t, byExtension)
			assert.Equal(t, account.ID, byExtension.ID)
		})

		t.Run("DuplicateExtensionIsSentinel", func(t *testing.T) {
			first, err := fixtures.CreateTestAccount(models.AccountStatusPendingProvision)
			require.NoError(t, err)
			second, err := fixtures.CreateTestAccount(models.AccountStatusPendingProvision)
			require.NoError(t, err)

			err = accountRepo.UpdateProvisioned(context.Background(), first.ID, "7100", "s3cretvalue12345")
			require.NoError(t, err)

			err = accountRepo.UpdateProvisioned(context.Background(), second.ID, "7100", "othersecret12345")
			require.Error(t, err)
			assert.ErrorIs(t, err, repository.ErrDuplicateSipExtension)
		})

		t.Run("UpdateStatus", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusPendingProvision)
			require.NoError(t, err)

			err = accountRepo.UpdateStatus(context.Background(), account.ID, models.AccountStatusProvisionFailed)
			require.NoError(t, err)

			updated, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, models.AccountStatusProvisionFailed, updated.Status)
			assert.Nil(t, updated.SipExtension)
		})

		t.Run("CountAndExistsByStatus", func(t *testing.T) {
			_, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			count, err := accountRepo.Count(context.Background(), models.AccountFilter{
				Status: utils.ToPtr(models.AccountStatusActive),
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, int64(1))

			exists, err := accountRepo.Exists(context.Background(), models.AccountFilter{
				Status: utils.ToPtr(models.AccountStatusActive),
			})
			require.NoError(t, err)
			assert.True(t, exists)
		})

		t.Run("Delete", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusProvisionFailed)
			require.NoError(t, err)

			err = accountRepo.Delete(context.Background(), account.ID)
			require.NoError(t, err)

			gone, err := accountRepo.ByID(context.Background(), account.ID)
			require.NoError(t, err)
			assert.Nil(t, gone)
		})

		return nil
	})

	require.NoError(t, err)
}

func TestTrustedIPRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		trustedIPRepo := repository.NewTrustedIPRepository(testDB.DB)

		t.Run("UpsertInsertsThenExtends", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			firstExpiry := utils.UTCNowAdd(time.Hour)
			err = trustedIPRepo.Upsert(context.Background(), "198.51.100.1", &account.ID, firstExpiry)
			require.NoError(t, err)

			row, err := trustedIPRepo.ByIPAddress(context.Background(), "198.51.100.1")
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.WithinDuration(t, firstExpiry, row.ExpiresAt, time.Second)

			// A second upsert on the same address extends, never duplicates
			laterExpiry := utils.UTCNowAdd(2 * time.Hour)
			err = trustedIPRepo.Upsert(context.Background(), "198.51.100.1", &account.ID, laterExpiry)
			require.NoError(t, err)

			count, err := trustedIPRepo.Count(context.Background(), models.TrustedIPFilter{
				IPAddress: utils.ToPtr("198.51.100.1"),
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), count)

			row, err = trustedIPRepo.ByIPAddress(context.Background(), "198.51.100.1")
			require.NoError(t, err)
			require.NotNil(t, row)
			assert.WithinDuration(t, laterExpiry, row.ExpiresAt, time.Second)
		})

		t.Run("MissingIPIsNil", func(t *testing.T) {
			row, err := trustedIPRepo.ByIPAddress(context.Background(), "203.0.113.99")
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("ListExpired", func(t *testing.T) {
			_, err := fixtures.CreateTestTrustedIP("198.51.100.10", nil, utils.UTCNowAdd(-time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreateTestTrustedIP("198.51.100.11", nil, utils.UTCNowAdd(time.Hour))
			require.NoError(t, err)

			expired, err := trustedIPRepo.ListExpired(context.Background(), utils.UTCNow())
			require.NoError(t, err)
			require.NotEmpty(t, expired)
			for _, row := range expired {
				assert.True(t, row.IsExpired())
				assert.NotEqual(t, "198.51.100.11", row.IPAddress)
			}
		})

		t.Run("DeleteByIPAddress", func(t *testing.T) {
			_, err := fixtures.CreateTestTrustedIP("198.51.100.20", nil, utils.UTCNowAdd(time.Hour))
			require.NoError(t, err)

			err = trustedIPRepo.DeleteByIPAddress(context.Background(), "198.51.100.20")
			require.NoError(t, err)

			row, err := trustedIPRepo.ByIPAddress(context.Background(), "198.51.100.20")
			require.NoError(t, err)
			assert.Nil(t, row)
		})

		t.Run("DeleteExpiredReportsCount", func(t *testing.T) {
			_, err := fixtures.CreateTestTrustedIP("198.51.100.30", nil, utils.UTCNowAdd(-2*time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreateTestTrustedIP("198.51.100.31", nil, utils.UTCNowAdd(-time.Minute))
			require.NoError(t, err)
			_, err = fixtures.CreateTestTrustedIP("198.51.100.32", nil, utils.UTCNowAdd(time.Hour))
			require.NoError(t, err)

			removed, err := trustedIPRepo.DeleteExpired(context.Background(), utils.UTCNow())
			require.NoError(t, err)
			assert.GreaterOrEqual(t, removed, int64(2))

			survivor, err := trustedIPRepo.ByIPAddress(context.Background(), "198.51.100.32")
			require.NoError(t, err)
			assert.NotNil(t, survivor)
		})

		return nil
	})

	require.NoError(t, err)
}

func TestAuditLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		accountRepo := repository.NewAccountRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		t.Run("SaveAndListByAccount", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			_, err = fixtures.CreateTestAuditLog(&account.ID, models.AuditActionLoginSuccess, true)
			require.NoError(t, err)
			_, err = fixtures.CreateTestAuditLog(&account.ID, models.AuditActionCredentialsAccessed, true)
			require.NoError(t, err)

			logs, err := auditRepo.ListByAccount(context.Background(), account.ID, 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 2)
		})

		t.Run("ListByAction", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			_, err = fixtures.CreateTestAuditLog(&account.ID, models.AuditActionProvisionFailed, false)
			require.NoError(t, err)

			logs, err := auditRepo.ListByAction(context.Background(), models.AuditActionProvisionFailed, 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, logs)
			for _, log := range logs {
				assert.Equal(t, models.AuditActionProvisionFailed, log.Action)
			}
		})

		t.Run("ListFailedActions", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusActive)
			require.NoError(t, err)

			_, err = fixtures.CreateTestAuditLog(&account.ID, models.AuditActionLoginFailed, false)
			require.NoError(t, err)

			logs, err := auditRepo.ListFailedActions(context.Background(), 0, 0)
			require.NoError(t, err)
			require.NotEmpty(t, logs)
			for _, log := range logs {
				assert.True(t, log.IsFailed())
			}
		})

		t.Run("AccountDeletionDetachesAuditTrail", func(t *testing.T) {
			account, err := fixtures.CreateTestAccount(models.AccountStatusProvisionFailed)
			require.NoError(t, err)

			audit, err := fixtures.CreateTestAuditLog(&account.ID, models.AuditActionAccountDeleted, true)
			require.NoError(t, err)

			err = accountRepo.Delete(context.Background(), account.ID)
			require.NoError(t, err)

			// The audit row survives with its account reference cleared
			detached, err := auditRepo.ByID(context.Background(), audit.ID)
			require.NoError(t, err)
			require.NotNil(t, detached)
			assert.Nil(t, detached.AccountID)
		})

		return nil
	})

	require.NoError(t, err)
}

func TestAdminRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		adminRepo := repository.NewAdminRepository(testDB.DB)

		t.Run("SaveAndRetrieveByUsername", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin("AdminPass123!")
			require.NoError(t, err)

			found, err := adminRepo.ByUsername(context.Background(), admin.Username)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, admin.ID, found.ID)
			assert.True(t, utils.IsTrue(found.IsActive))
		})

		t.Run("MissingUsernameIsNil", func(t *testing.T) {
			found, err := adminRepo.ByUsername(context.Background(), "no-such-operator")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("UpdateLastLogin", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin("AdminPass123!")
			require.NoError(t, err)
			require.Nil(t, admin.LastLoginAt)

			now := utils.UTCNow()
			err = adminRepo.UpdateLastLogin(context.Background(), admin.ID, now)
			require.NoError(t, err)

			updated, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			require.NotNil(t, updated)
			require.NotNil(t, updated.LastLoginAt)
			assert.WithinDuration(t, now, *updated.LastLoginAt, time.Second)
		})

		return nil
	})

	require.NoError(t, err)
}
