package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/services"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/utils"
)

type dispatchHarness struct {
	userRepo     *fakeUserRepo
	campaignRepo *fakeCampaignRepo
	messageRepo  *fakeMessageRepo
	ledgerRepo   *fakeLedgerRepo
	auditRepo    *fakeAuditRepo
	delivery     *services.MockDeliveryService
	notification *services.MockNotificationService
	cache        *fakeCampaignCache
	flow         DispatchFlow
}

func newDispatchHarness(user *models.User) *dispatchHarness {
	h := &dispatchHarness{
		userRepo:     newFakeUserRepo(user),
		campaignRepo: newFakeCampaignRepo(),
		messageRepo:  &fakeMessageRepo{},
		ledgerRepo:   &fakeLedgerRepo{},
		auditRepo:    &fakeAuditRepo{},
		delivery:     &services.MockDeliveryService{},
		notification: services.NewMockNotificationService(),
		cache:        newFakeCampaignCache(),
	}
	h.flow = NewDispatchFlow(
		h.userRepo,
		h.campaignRepo,
		h.messageRepo,
		h.ledgerRepo,
		h.auditRepo,
		h.delivery,
		h.notification,
		h.cache,
		nil,
	)
	return h
}

func activeUser(id uint, coins uint64) *models.User {
	return &models.User{
		ID:       id,
		Username: "sender",
		Email:    "sender@example.com",
		Coins:    coins,
		IsActive: utils.ToPtr(true),
	}
}

func sendRequest(recipients string) *dto.SendCampaignRequest {
	return &dto.SendCampaignRequest{
		Recipients:     recipients,
		SenderName:     "PROMO",
		MessageContent: "hello there",
	}
}

func allDelivered(recipients []string) []services.DeliveryOutcome {
	outcomes := make([]services.DeliveryOutcome, 0, len(recipients))
	for _, r := range recipients {
		outcomes = append(outcomes, services.DeliveryOutcome{PhoneNumber: r, Delivered: true})
	}
	return outcomes
}

func TestSendCampaign_Success(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 10))
	h.delivery.Outcomes = []services.DeliveryOutcome{
		{PhoneNumber: "+15550000001", Delivered: true},
		{PhoneNumber: "+15550000002", Delivered: true},
		{PhoneNumber: "+15550000003", Delivered: false, FailureReason: utils.FailedDeliveryMessage},
	}

	resp, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("+15550000001\n+15550000002\n+15550000003"), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalNumbers)
	assert.Equal(t, 2, resp.SuccessCount)
	assert.Equal(t, 1, resp.FailureCount)
	assert.Equal(t, resp.TotalNumbers, resp.SuccessCount+resp.FailureCount)
	assert.Equal(t, uint64(3), resp.CoinsUsed)
	assert.Equal(t, uint64(7), resp.RemainingCoins)
	assert.Equal(t, 1, resp.SegmentCount)

	// Balance was debited one coin per recipient
	assert.Equal(t, uint64(7), h.userRepo.users[1].Coins)
	assert.Equal(t, 1, h.userRepo.debits)

	// Debit journal entry correlates with the campaign
	require.Len(t, h.ledgerRepo.entries, 1)
	entry := h.ledgerRepo.entries[0]
	assert.Equal(t, models.LedgerEntryTypeDebit, entry.Type)
	assert.Equal(t, uint64(3), entry.Amount)
	assert.Equal(t, uint64(10), entry.BalanceBefore)
	assert.Equal(t, uint64(7), entry.BalanceAfter)
	assert.Equal(t, "campaign_dispatch", entry.Reason)

	// One summary, one record per recipient
	require.Len(t, h.campaignRepo.campaigns, 1)
	assert.Len(t, h.messageRepo.records, 3)

	// Report sent, cache invalidated, success audited
	assert.Len(t, h.notification.Reports, 1)
	assert.Equal(t, 1, h.cache.invalidations)
	assert.Equal(t, 1, h.auditRepo.actionsNamed(models.AuditActionCampaignDispatched))
}

func TestSendCampaign_InsufficientFunds(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 2))

	_, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1\n2\n3"), nil)
	require.Error(t, err)
	assert.True(t, IsInsufficientFunds(err))

	// Nothing was charged, delivered, or persisted
	assert.Equal(t, uint64(2), h.userRepo.users[1].Coins)
	assert.Empty(t, h.ledgerRepo.entries)
	assert.Empty(t, h.delivery.Calls)
	assert.Empty(t, h.campaignRepo.campaigns)
	assert.Equal(t, 1, h.auditRepo.actionsNamed(models.AuditActionCampaignDispatchFailed))
}

func TestSendCampaign_ExactBalance(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 3))
	h.delivery.Outcomes = allDelivered([]string{"1", "2", "3"})

	resp, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1\n2\n3"), nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), resp.RemainingCoins)
}

func TestSendCampaign_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*dto.SendCampaignRequest)
		checker func(error) bool
	}{
		{
			name:    "no recipients",
			mutate:  func(r *dto.SendCampaignRequest) { r.Recipients = " ;\n " },
			checker: IsNoRecipients,
		},
		{
			name:    "empty message",
			mutate:  func(r *dto.SendCampaignRequest) { r.MessageContent = "" },
			checker: IsMessageContentRequired,
		},
		{
			name:    "whitespace-only message",
			mutate:  func(r *dto.SendCampaignRequest) { r.MessageContent = "   \t  " },
			checker: IsMessageContentRequired,
		},
		{
			name:    "sender name too long",
			mutate:  func(r *dto.SendCampaignRequest) { r.SenderName = "TWELVECHARSX" },
			checker: IsSenderNameTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newDispatchHarness(activeUser(1, 100))
			req := sendRequest("1\n2")
			tt.mutate(req)

			_, err := h.flow.SendCampaign(context.Background(), 1, req, nil)
			require.Error(t, err)
			assert.True(t, tt.checker(err))

			// Validation rejects before any charge
			assert.Equal(t, uint64(100), h.userRepo.users[1].Coins)
			assert.Empty(t, h.delivery.Calls)
		})
	}
}

func TestSendCampaign_InactiveUser(t *testing.T) {
	user := activeUser(1, 100)
	user.IsActive = utils.ToPtr(false)
	h := newDispatchHarness(user)

	_, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1"), nil)
	require.Error(t, err)
	assert.True(t, IsAccountInactive(err))
	assert.Equal(t, uint64(100), h.userRepo.users[1].Coins)
}

func TestSendCampaign_DeliveryErrorDoesNotRefund(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 10))
	h.delivery.Err = errors.New("carrier unreachable")

	_, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1\n2"), nil)
	require.Error(t, err)
	assert.True(t, IsDeliveryFailed(err))

	// The charge stands even though nothing was sent
	assert.Equal(t, uint64(8), h.userRepo.users[1].Coins)
	assert.Len(t, h.ledgerRepo.entries, 1)
	assert.Empty(t, h.campaignRepo.campaigns)
}

func TestSendCampaign_PersistErrorDoesNotRefund(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 10))
	h.delivery.Outcomes = allDelivered([]string{"1", "2"})
	h.campaignRepo.saveErr = errors.New("insert failed")

	_, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1\n2"), nil)
	require.Error(t, err)
	assert.True(t, IsCampaignNotPersisted(err))

	assert.Equal(t, uint64(8), h.userRepo.users[1].Coins)
	assert.Len(t, h.ledgerRepo.entries, 1)
}

func TestSendCampaign_MessageRecordFailureIsBestEffort(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 10))
	h.delivery.Outcomes = allDelivered([]string{"1", "2"})
	h.messageRepo.batchErr = errors.New("bulk insert failed")

	resp, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1\n2"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalNumbers)

	// Summary survives, failure is only audited
	assert.Len(t, h.campaignRepo.campaigns, 1)
	assert.Empty(t, h.messageRepo.records)
	assert.Equal(t, 1, h.auditRepo.actionsNamed(models.AuditActionCampaignDispatchFailed))
	assert.Equal(t, 1, h.auditRepo.actionsNamed(models.AuditActionCampaignDispatched))
}

func TestSendCampaign_NotificationFailureIsBestEffort(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 10))
	h.delivery.Outcomes = allDelivered([]string{"1"})
	h.notification.Err = errors.New("smtp down")

	resp, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("1"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalNumbers)
	assert.Len(t, h.campaignRepo.campaigns, 1)
}

func TestSendCampaign_DuplicateRecipientsChargedTwice(t *testing.T) {
	h := newDispatchHarness(activeUser(1, 10))
	h.delivery.Outcomes = allDelivered([]string{"+15550000001", "+15550000001"})

	resp, err := h.flow.SendCampaign(context.Background(), 1, sendRequest("+15550000001\n+15550000001"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalNumbers)
	assert.Equal(t, uint64(2), resp.CoinsUsed)

	require.Len(t, h.delivery.Calls, 1)
	assert.Equal(t, []string{"+15550000001", "+15550000001"}, h.delivery.Calls[0].Recipients)
}
