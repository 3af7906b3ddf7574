package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/utils"
)

type ledgerHarness struct {
	userRepo   *fakeUserRepo
	ledgerRepo *fakeLedgerRepo
	auditRepo  *fakeAuditRepo
	flow       LedgerFlow
}

func newLedgerHarness(user *models.User) *ledgerHarness {
	h := &ledgerHarness{
		userRepo:   newFakeUserRepo(user),
		ledgerRepo: &fakeLedgerRepo{},
		auditRepo:  &fakeAuditRepo{},
	}
	h.flow = NewLedgerFlow(h.userRepo, h.ledgerRepo, h.auditRepo, nil)
	return h
}

func TestAddCoins(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 5))

	resp, err := h.flow.AddCoins(context.Background(), 1, &dto.AddCoinsRequest{Amount: 20}, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(5), resp.BalanceBefore)
	assert.Equal(t, uint64(25), resp.BalanceAfter)
	assert.Equal(t, uint64(20), resp.Amount)
	assert.Equal(t, uint64(25), h.userRepo.users[1].Coins)

	require.Len(t, h.ledgerRepo.entries, 1)
	entry := h.ledgerRepo.entries[0]
	assert.Equal(t, models.LedgerEntryTypeCredit, entry.Type)
	assert.Equal(t, uint64(20), entry.Amount)
	assert.Equal(t, uint64(5), entry.BalanceBefore)
	assert.Equal(t, uint64(25), entry.BalanceAfter)
	assert.Equal(t, "coins_topup", entry.Reason)
	assert.Equal(t, utils.CoinCurrency, entry.Currency)

	assert.Equal(t, 1, h.auditRepo.actionsNamed(models.AuditActionCoinsCredited))
}

func TestAddCoins_ZeroAmount(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 5))

	_, err := h.flow.AddCoins(context.Background(), 1, &dto.AddCoinsRequest{Amount: 0}, nil)
	require.Error(t, err)
	assert.True(t, IsAmountRequired(err))
	assert.Empty(t, h.ledgerRepo.entries)
	assert.Equal(t, uint64(5), h.userRepo.users[1].Coins)
}

func TestAddCoins_UnknownUser(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 5))

	_, err := h.flow.AddCoins(context.Background(), 42, &dto.AddCoinsRequest{Amount: 10}, nil)
	require.Error(t, err)
	assert.True(t, IsUserNotFound(err))
	assert.Equal(t, 1, h.auditRepo.actionsNamed(models.AuditActionCoinsCreditFailed))
}

func TestAddCoins_InactiveUser(t *testing.T) {
	user := activeUser(1, 5)
	user.IsActive = utils.ToPtr(false)
	h := newLedgerHarness(user)

	_, err := h.flow.AddCoins(context.Background(), 1, &dto.AddCoinsRequest{Amount: 10}, nil)
	require.Error(t, err)
	assert.True(t, IsAccountInactive(err))
	assert.Equal(t, uint64(5), h.userRepo.users[1].Coins)
}

func TestGetBalance(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 37))

	resp, err := h.flow.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(37), resp.Coins)
}

func TestGetBalance_UnknownUser(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 37))

	_, err := h.flow.GetBalance(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, IsUserNotFound(err))
}

func TestLedgerHistory(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 0))

	for i := 0; i < 3; i++ {
		_, err := h.flow.AddCoins(context.Background(), 1, &dto.AddCoinsRequest{Amount: 10}, nil)
		require.NoError(t, err)
	}

	resp, err := h.flow.LedgerHistory(context.Background(), 1, 1, 2)
	require.NoError(t, err)

	assert.Len(t, resp.Items, 2)
	assert.Equal(t, int64(3), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 2, resp.PageSize)
}

func TestLedgerHistory_PaginationValidation(t *testing.T) {
	h := newLedgerHarness(activeUser(1, 0))

	_, err := h.flow.LedgerHistory(context.Background(), 1, 0, 20)
	require.Error(t, err)
	assert.True(t, IsInvalidPage(err))

	_, err = h.flow.LedgerHistory(context.Background(), 1, 1, 0)
	require.Error(t, err)
	assert.True(t, IsInvalidPageSize(err))

	_, err = h.flow.LedgerHistory(context.Background(), 1, 1, 101)
	require.Error(t, err)
	assert.True(t, IsInvalidPageSize(err))
}
