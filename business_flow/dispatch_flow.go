// Package businessflow contains the core business logic and use cases for campaign dispatch and the coin ledger
package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/services"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/repository"
	"github.com/taurodigital/sms-panel/utils"
	"gorm.io/gorm"
)

// DispatchFlow handles end-to-end campaign dispatch: parse, charge, send,
// persist, notify.
type DispatchFlow interface {
	SendCampaign(ctx context.Context, userID uint, request *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendCampaignResponse, error)
}

// DispatchFlowImpl implements the dispatch business flow
type DispatchFlowImpl struct {
	userRepo        repository.UserRepository
	campaignRepo    repository.CampaignRepository
	messageRepo     repository.MessageRecordRepository
	ledgerRepo      repository.LedgerEntryRepository
	auditRepo       repository.AuditLogRepository
	deliverySvc     services.DeliveryService
	notificationSvc services.NotificationService
	cache           CampaignCache
	db              *gorm.DB
}

// NewDispatchFlow creates a new dispatch flow instance
func NewDispatchFlow(
	userRepo repository.UserRepository,
	campaignRepo repository.CampaignRepository,
	messageRepo repository.MessageRecordRepository,
	ledgerRepo repository.LedgerEntryRepository,
	auditRepo repository.AuditLogRepository,
	deliverySvc services.DeliveryService,
	notificationSvc services.NotificationService,
	cache CampaignCache,
	db *gorm.DB,
) DispatchFlow {
	return &DispatchFlowImpl{
		userRepo:        userRepo,
		campaignRepo:    campaignRepo,
		messageRepo:     messageRepo,
		ledgerRepo:      ledgerRepo,
		auditRepo:       auditRepo,
		deliverySvc:     deliverySvc,
		notificationSvc: notificationSvc,
		cache:           cache,
		db:              db,
	}
}

// SendCampaign charges the user one coin per recipient, hands the batch to
// the carrier, and records the outcome. The charge commits before sending;
// once it has committed it is never refunded, even when a later stage fails.
func (df *DispatchFlowImpl) SendCampaign(ctx context.Context, userID uint, request *dto.SendCampaignRequest, metadata *ClientMetadata) (*dto.SendCampaignResponse, error) {
	recipients, err := df.validateSendRequest(request)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_VALIDATION_FAILED", "Campaign validation failed", err)
	}

	cost := uint64(len(recipients)) * utils.CostPerRecipient
	campaignUUID := uuid.New()

	var user *models.User
	var remaining uint64

	// Charge first. The debit and its journal entry commit together; the
	// row lock inside Debit serializes concurrent dispatches per user.
	err = repository.WithTransaction(ctx, df.db, func(txCtx context.Context) error {
		var txErr error
		user, txErr = df.userRepo.ByID(txCtx, userID)
		if txErr != nil {
			return txErr
		}
		if user == nil {
			return ErrUserNotFound
		}
		if !utils.IsTrue(user.IsActive) {
			return ErrAccountInactive
		}

		before, after, txErr := df.userRepo.Debit(txCtx, userID, cost)
		if txErr != nil {
			if errors.Is(txErr, repository.ErrBalanceInsufficient) {
				return ErrInsufficientFunds
			}
			return txErr
		}
		remaining = after

		entryMetadata, _ := json.Marshal(map[string]any{
			"campaign_uuid": campaignUUID.String(),
			"recipients":    len(recipients),
		})
		entry := &models.LedgerEntry{
			CorrelationID: campaignUUID,
			UserID:        userID,
			Type:          models.LedgerEntryTypeDebit,
			Amount:        cost,
			BalanceBefore: before,
			BalanceAfter:  after,
			Currency:      utils.CoinCurrency,
			Reason:        "campaign_dispatch",
			Description:   fmt.Sprintf("Charge for campaign %s (%d recipients)", campaignUUID, len(recipients)),
			Metadata:      entryMetadata,
		}

		return df.ledgerRepo.Save(txCtx, entry)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Campaign dispatch failed before charge: %s", err.Error())
		_ = df.logDispatchAttempt(ctx, userID, models.AuditActionCampaignDispatchFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_DISPATCH_FAILED", "Campaign dispatch failed", err)
	}

	// Past this point the coins are spent. Failures below are reported to
	// the caller but never refunded.
	sentAt := utils.UTCNow()

	outcomes, err := df.deliverySvc.Deliver(ctx, recipients, request.SenderName, request.MessageContent)
	if err != nil {
		errMsg := fmt.Sprintf("Carrier hand-off failed after charge of %d coins: %s", cost, err.Error())
		_ = df.logDispatchAttempt(ctx, userID, models.AuditActionCampaignDispatchFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_DELIVERY_FAILED", "Campaign delivery failed", errors.Join(ErrDeliveryFailed, err))
	}

	successCount := 0
	for _, o := range outcomes {
		if o.Delivered {
			successCount++
		}
	}
	failureCount := len(recipients) - successCount

	campaign := &models.Campaign{
		UUID:         campaignUUID,
		UserID:       userID,
		SentAt:       sentAt,
		TotalNumbers: len(recipients),
		SuccessCount: successCount,
		FailureCount: failureCount,
		CoinsUsed:    cost,
	}
	if request.SenderName != "" {
		campaign.SenderName = utils.ToPtr(request.SenderName)
	}
	campaign.MessageContent = utils.ToPtr(request.MessageContent)

	// The summary is all-or-nothing; a failed write surfaces as an error.
	if err := df.campaignRepo.Save(ctx, campaign); err != nil {
		errMsg := fmt.Sprintf("Campaign summary write failed after charge of %d coins: %s", cost, err.Error())
		_ = df.logDispatchAttempt(ctx, userID, models.AuditActionCampaignDispatchFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_PERSIST_FAILED", "Campaign could not be persisted", errors.Join(ErrCampaignNotPersisted, err))
	}

	// Per-recipient records are best-effort; a failed bulk insert leaves
	// the summary and the charge in place.
	if err := df.saveMessageRecords(ctx, user, campaign, request, outcomes); err != nil {
		errMsg := fmt.Sprintf("Message record bulk write failed for campaign %s: %s", campaignUUID, err.Error())
		_ = df.logDispatchAttempt(ctx, userID, models.AuditActionCampaignDispatchFailed, errMsg, false, &errMsg, metadata)
	}

	// Operator report is best-effort as well.
	report := &services.CampaignReport{
		Username:       user.Username,
		CampaignUUID:   campaignUUID.String(),
		SentAt:         sentAt,
		TotalNumbers:   len(recipients),
		SuccessCount:   successCount,
		FailureCount:   failureCount,
		CoinsUsed:      cost,
		SenderName:     request.SenderName,
		MessageContent: request.MessageContent,
		Outcomes:       outcomes,
	}
	_ = df.notificationSvc.SendCampaignReport(ctx, report)

	if df.cache != nil {
		_ = df.cache.InvalidateUser(ctx, userID)
	}

	msg := fmt.Sprintf("Campaign %s dispatched: %d sent, %d delivered, %d coins", campaignUUID, len(recipients), successCount, cost)
	_ = df.logDispatchAttempt(ctx, userID, models.AuditActionCampaignDispatched, msg, true, nil, metadata)

	return &dto.SendCampaignResponse{
		CampaignID:     campaignUUID.String(),
		SentAt:         sentAt,
		TotalNumbers:   len(recipients),
		SuccessCount:   successCount,
		FailureCount:   failureCount,
		CoinsUsed:      cost,
		RemainingCoins: remaining,
		SegmentCount:   utils.MessageSegments(request.MessageContent),
	}, nil
}

func (df *DispatchFlowImpl) validateSendRequest(request *dto.SendCampaignRequest) ([]string, error) {
	if strings.TrimSpace(request.MessageContent) == "" {
		return nil, ErrMessageContentRequired
	}
	if len(request.SenderName) > utils.MaxSenderNameLength {
		return nil, ErrSenderNameTooLong
	}

	recipients := ParseRecipients(request.Recipients)
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	return recipients, nil
}

func (df *DispatchFlowImpl) saveMessageRecords(ctx context.Context, user *models.User, campaign *models.Campaign, request *dto.SendCampaignRequest, outcomes []services.DeliveryOutcome) error {
	records := make([]*models.MessageRecord, 0, len(outcomes))
	for _, o := range outcomes {
		record := &models.MessageRecord{
			UserID:         user.ID,
			CampaignID:     campaign.ID,
			PhoneNumber:    o.PhoneNumber,
			SentAt:         campaign.SentAt,
			SenderName:     campaign.SenderName,
			MessageContent: campaign.MessageContent,
		}
		if o.Delivered {
			record.Status = models.MessageStatusSuccess
		} else {
			record.Status = models.MessageStatusFailed
			record.ErrorMessage = utils.ToPtr(o.FailureReason)
		}
		records = append(records, record)
	}

	return df.messageRepo.SaveBatch(ctx, records)
}

func (df *DispatchFlowImpl) logDispatchAttempt(ctx context.Context, userID uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       &userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return df.auditRepo.Save(ctx, audit)
}
