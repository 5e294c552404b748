package businessflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/app/dto"
	"github.com/amirphl/Susanoo/app/services"
	businessflow "github.com/amirphl/Susanoo/business_flow"
	"github.com/amirphl/Susanoo/config"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestOnboardingRoundtrip walks the whole subscriber journey on a fresh
// database: register, log in with the same credentials, then fetch SIP
// credentials with the issued token's account.
func TestOnboardingRoundtrip(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		accountRepo := repository.NewAccountRepository(testDB.DB)
		trustedIPRepo := repository.NewTrustedIPRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		passwordSvc, err := services.NewPasswordService(bcrypt.MinCost)
		require.NoError(t, err)
		tokenSvc, err := services.NewTokenService(
			24*time.Hour,
			30*time.Minute,
			"susanoo",
			"susanoo-api",
			"roundtrip-secret-key-32-characters!",
		)
		require.NoError(t, err)

		mockPBX := services.NewMockPBXClient()
		mockFirewall := services.NewMockFirewallService()
		firewallCfg := &config.FirewallConfig{Enabled: false, TrustTTL: time.Hour}

		registrationFlow := businessflow.NewRegistrationFlow(
			accountRepo, auditRepo, passwordSvc, mockPBX, testSIPConfig(), testDB.DB)
		loginFlow := businessflow.NewLoginFlow(accountRepo, auditRepo, passwordSvc, tokenSvc)
		credentialsFlow := businessflow.NewCredentialsFlow(
			accountRepo, trustedIPRepo, auditRepo, mockFirewall, testSIPConfig(), firewallCfg)

		metadata := businessflow.NewClientMetadata("192.0.2.20", "softphone/1.0")

		// First account on a fresh database gets extension_start + 1
		registered, err := registrationFlow.Register(context.Background(), &dto.RegisterRequest{
			Email:    "a@x.com",
			Password: "SecurePass123!",
		}, metadata)
		require.NoError(t, err)
		require.NotNil(t, registered.Account.SipExtension)
		assert.Equal(t, "1001", *registered.Account.SipExtension)

		loggedIn, err := loginFlow.Login(context.Background(), &dto.LoginRequest{
			Email:    "a@x.com",
			Password: "SecurePass123!",
		}, metadata)
		require.NoError(t, err)
		require.NotEmpty(t, loggedIn.AccessToken)
		assert.Equal(t, "Bearer", loggedIn.TokenType)
		assert.Equal(t, int((24 * time.Hour).Seconds()), loggedIn.ExpiresIn)

		// The token binds to the registered account
		claims, err := tokenSvc.ValidateToken(loggedIn.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, registered.Account.ID, claims.AccountID)

		// Credentials carry exactly what was provisioned
		creds, err := credentialsFlow.GetCredentials(context.Background(), claims.AccountID, metadata)
		require.NoError(t, err)
		assert.Equal(t, "1001", creds.Username)
		assert.Equal(t, "sip.example.com", creds.Domain)
		assert.Equal(t, 5060, creds.Port)
		assert.Equal(t, "a", creds.DisplayName)
		require.NotEmpty(t, creds.Password)

		allocation := mockPBX.Extensions["1001"]
		require.NotNil(t, allocation)
		assert.Equal(t, allocation.Secret, creds.Password)

		return nil
	})

	require.NoError(t, err)
}

// TestConcurrentRegistrationSingleWinner races several registrations for the
// same email. The unique insert is the only arbiter: exactly one wins, the
// rest get the duplicate error, and the PBX is called once.
func TestConcurrentRegistrationSingleWinner(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		accountRepo := repository.NewAccountRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		passwordSvc, err := services.NewPasswordService(bcrypt.MinCost)
		require.NoError(t, err)

		mockPBX := services.NewMockPBXClient()
		registrationFlow := businessflow.NewRegistrationFlow(
			accountRepo, auditRepo, passwordSvc, mockPBX, testSIPConfig(), testDB.DB)

		metadata := businessflow.NewClientMetadata("192.0.2.30", "test-agent")

		const racers = 8
		errs := make(chan error, racers)
		var wg sync.WaitGroup
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := registrationFlow.Register(context.Background(), &dto.RegisterRequest{
					Email:    "contended@example.com",
					Password: "SecurePass123!",
				}, metadata)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var successes, duplicates int
		for err := range errs {
			switch {
			case err == nil:
				successes++
			case businessflow.IsDuplicateAccount(err):
				duplicates++
			default:
				t.Errorf("unexpected registration error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, racers-1, duplicates)

		email := "contended@example.com"
		count, err := accountRepo.Count(context.Background(), models.AccountFilter{Email: &email})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.Len(t, mockPBX.AllocateCalls, 1)

		return nil
	})

	require.NoError(t, err)
}
