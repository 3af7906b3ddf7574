package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingutil "github.com/taurodigital/sms-panel/testing"
)

// requireTestDB provisions a throwaway database, or skips when no server is
// configured.
func requireTestDB(t *testing.T) *testingutil.TestDB {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set; skipping database tests")
	}

	tdb, err := testingutil.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tdb.TeardownTestDB()
	})
	return tdb
}

func TestDebit_ConcurrentSingleWinner(t *testing.T) {
	tdb := requireTestDB(t)
	fixtures := testingutil.NewTestFixtures(tdb)

	// Balance covers one debit of 2 but not two
	user, err := fixtures.CreateTestUser(3)
	require.NoError(t, err)

	repo := NewUserRepository(tdb.DB)
	ctx := testingutil.CreateTestContext()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
				_, _, debitErr := repo.Debit(txCtx, user.ID, 2)
				return debitErr
			})
		}(i)
	}
	wg.Wait()

	var won, refused int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, ErrBalanceInsufficient)
		refused++
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, refused)

	fresh, err := repo.ByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, uint64(1), fresh.Coins)
}

func TestDeleteOwned_Database(t *testing.T) {
	tdb := requireTestDB(t)
	fixtures := testingutil.NewTestFixtures(tdb)

	owner, err := fixtures.CreateTestUser(0)
	require.NoError(t, err)
	intruder, err := fixtures.CreateTestUser(0)
	require.NoError(t, err)

	campaign, err := fixtures.CreateTestCampaign(owner.ID, 3, 2)
	require.NoError(t, err)

	campaignRepo := NewCampaignRepository(tdb.DB)
	messageRepo := NewMessageRecordRepository(tdb.DB)
	ctx := testingutil.CreateTestContext()

	err = WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
		return campaignRepo.DeleteOwned(txCtx, campaign.ID, intruder.ID)
	})
	require.ErrorIs(t, err, ErrCampaignAccessDenied)

	err = WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
		return campaignRepo.DeleteOwned(txCtx, campaign.ID+1000, owner.ID)
	})
	require.ErrorIs(t, err, ErrCampaignNotFound)

	// Both rejections left the campaign and its records in place
	records, err := messageRepo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	err = WithTransaction(ctx, tdb.DB, func(txCtx context.Context) error {
		return campaignRepo.DeleteOwned(txCtx, campaign.ID, owner.ID)
	})
	require.NoError(t, err)

	gone, err := campaignRepo.ByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	records, err = messageRepo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
