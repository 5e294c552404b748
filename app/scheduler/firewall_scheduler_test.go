package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/Susanoo/app/scheduler"
	"github.com/amirphl/Susanoo/app/services"
	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/repository"
	testingutil "github.com/amirphl/Susanoo/testing"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirewallSchedulerSweep(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		trustedIPRepo := repository.NewTrustedIPRepository(testDB.DB)
		mockFirewall := services.NewMockFirewallService()

		_, err := fixtures.CreateTestTrustedIP("198.51.100.50", nil, utils.UTCNowAdd(-time.Hour))
		require.NoError(t, err)
		_, err = fixtures.CreateTestTrustedIP("198.51.100.51", nil, utils.UTCNowAdd(-time.Minute))
		require.NoError(t, err)
		_, err = fixtures.CreateTestTrustedIP("198.51.100.52", nil, utils.UTCNowAdd(time.Hour))
		require.NoError(t, err)

		sched := scheduler.NewFirewallScheduler(trustedIPRepo, mockFirewall, time.Hour)
		stop := sched.Start(context.Background())
		defer stop()

		// The first sweep runs on start; wait for the expired rows to go
		require.Eventually(t, func() bool {
			rows, err := trustedIPRepo.ListExpired(context.Background(), utils.UTCNow())
			return err == nil && len(rows) == 0
		}, 5*time.Second, 50*time.Millisecond)

		assert.Contains(t, mockFirewall.UntrustedIPs, "198.51.100.50")
		assert.Contains(t, mockFirewall.UntrustedIPs, "198.51.100.51")
		assert.NotContains(t, mockFirewall.UntrustedIPs, "198.51.100.52")

		// The unexpired row survives the sweep
		survivor, err := trustedIPRepo.ByIPAddress(context.Background(), "198.51.100.52")
		require.NoError(t, err)
		assert.NotNil(t, survivor)

		return nil
	})

	require.NoError(t, err)
}

func TestFirewallSchedulerKeepsRowOnUntrustFailure(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		trustedIPRepo := repository.NewTrustedIPRepository(testDB.DB)

		mockFirewall := services.NewMockFirewallService()
		mockFirewall.FailWith = errors.New("ssh unreachable")

		_, err := fixtures.CreateTestTrustedIP("198.51.100.60", nil, utils.UTCNowAdd(-time.Hour))
		require.NoError(t, err)

		sched := scheduler.NewFirewallScheduler(trustedIPRepo, mockFirewall, time.Hour)
		stop := sched.Start(context.Background())
		defer stop()

		// Give the first sweep time to run and fail
		time.Sleep(500 * time.Millisecond)

		// A failed untrust must keep the row for the next sweep
		row, err := trustedIPRepo.ByIPAddress(context.Background(), "198.51.100.60")
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.True(t, row.IsExpired())

		count, err := trustedIPRepo.Count(context.Background(), models.TrustedIPFilter{
			IPAddress: utils.ToPtr("198.51.100.60"),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		return nil
	})

	require.NoError(t, err)
}
