// Package businessflow contains the core business logic and use cases for campaign dispatch and the coin ledger
package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/repository"
	"github.com/taurodigital/sms-panel/utils"
	"gorm.io/gorm"
)

// CampaignCache caches campaign history pages per user. A nil cache (or a
// cache miss, or any cache error) falls back to the database.
type CampaignCache interface {
	GetHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.CampaignHistoryResponse, error)
	SetHistory(ctx context.Context, userID uint, page, pageSize int, response *dto.CampaignHistoryResponse) error
	InvalidateUser(ctx context.Context, userID uint) error
}

// RedisCampaignCache implements CampaignCache on Redis. Each user has a
// version counter; invalidation bumps the counter so stale pages simply
// expire instead of being scanned for.
type RedisCampaignCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCampaignCache creates a Redis-backed campaign history cache
func NewRedisCampaignCache(client *redis.Client, ttl time.Duration) *RedisCampaignCache {
	return &RedisCampaignCache{client: client, ttl: ttl}
}

func (c *RedisCampaignCache) versionKey(userID uint) string {
	return fmt.Sprintf("%s:ver:%d", utils.CampaignHistoryCacheKey, userID)
}

func (c *RedisCampaignCache) pageKey(userID uint, version int64, page, pageSize int) string {
	return fmt.Sprintf("%s:%d:v%d:%d:%d", utils.CampaignHistoryCacheKey, userID, version, page, pageSize)
}

// GetHistory returns the cached page or redis.Nil on a miss
func (c *RedisCampaignCache) GetHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.CampaignHistoryResponse, error) {
	version, err := c.client.Get(ctx, c.versionKey(userID)).Int64()
	if err != nil {
		return nil, err
	}

	payload, err := c.client.Get(ctx, c.pageKey(userID, version, page, pageSize)).Bytes()
	if err != nil {
		return nil, err
	}

	var response dto.CampaignHistoryResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// SetHistory stores the page under the user's current cache version
func (c *RedisCampaignCache) SetHistory(ctx context.Context, userID uint, page, pageSize int, response *dto.CampaignHistoryResponse) error {
	version, err := c.client.Get(ctx, c.versionKey(userID)).Int64()
	if err == redis.Nil {
		version = 0
		if err := c.client.Set(ctx, c.versionKey(userID), version, 0).Err(); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, c.pageKey(userID, version, page, pageSize), payload, c.ttl).Err()
}

// InvalidateUser bumps the user's cache version
func (c *RedisCampaignCache) InvalidateUser(ctx context.Context, userID uint) error {
	return c.client.Incr(ctx, c.versionKey(userID)).Err()
}

// HistoryFlow handles campaign history, per-recipient detail history, and
// owner-checked deletion.
type HistoryFlow interface {
	CampaignHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.CampaignHistoryResponse, error)
	DetailHistory(ctx context.Context, userID uint, campaignID *uint, page, pageSize int) (*dto.DetailHistoryResponse, error)
	DeleteCampaign(ctx context.Context, userID, campaignID uint, metadata *ClientMetadata) (*dto.DeleteCampaignResponse, error)
}

// HistoryFlowImpl implements the history business flow
type HistoryFlowImpl struct {
	campaignRepo repository.CampaignRepository
	messageRepo  repository.MessageRecordRepository
	auditRepo    repository.AuditLogRepository
	cache        CampaignCache
	db           *gorm.DB
}

// NewHistoryFlow creates a new history flow instance
func NewHistoryFlow(
	campaignRepo repository.CampaignRepository,
	messageRepo repository.MessageRecordRepository,
	auditRepo repository.AuditLogRepository,
	cache CampaignCache,
	db *gorm.DB,
) HistoryFlow {
	return &HistoryFlowImpl{
		campaignRepo: campaignRepo,
		messageRepo:  messageRepo,
		auditRepo:    auditRepo,
		cache:        cache,
		db:           db,
	}
}

// CampaignHistory lists the user's campaign summaries, newest first
func (hf *HistoryFlowImpl) CampaignHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.CampaignHistoryResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("CAMPAIGN_HISTORY_VALIDATION_FAILED", "Campaign history validation failed", err)
	}

	if hf.cache != nil {
		if cached, err := hf.cache.GetHistory(ctx, userID, page, pageSize); err == nil && cached != nil {
			return cached, nil
		}
	}

	campaigns, err := hf.campaignRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_HISTORY_FAILED", "Campaign history failed", err)
	}

	total, err := hf.campaignRepo.Count(ctx, models.CampaignFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_HISTORY_FAILED", "Campaign history failed", err)
	}

	items := make([]dto.CampaignDTO, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, ToCampaignDTO(*c))
	}

	response := &dto.CampaignHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	if hf.cache != nil {
		_ = hf.cache.SetHistory(ctx, userID, page, pageSize, response)
	}

	return response, nil
}

// DetailHistory lists per-recipient delivery records, newest first. With a
// campaignID it returns that campaign's records instead, after verifying the
// campaign exists and belongs to the caller.
func (hf *HistoryFlowImpl) DetailHistory(ctx context.Context, userID uint, campaignID *uint, page, pageSize int) (*dto.DetailHistoryResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("DETAIL_HISTORY_VALIDATION_FAILED", "Detail history validation failed", err)
	}

	if campaignID != nil {
		return hf.campaignDetails(ctx, userID, *campaignID, page, pageSize)
	}

	records, err := hf.messageRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("DETAIL_HISTORY_FAILED", "Detail history failed", err)
	}

	total, err := hf.messageRepo.Count(ctx, models.MessageRecordFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("DETAIL_HISTORY_FAILED", "Detail history failed", err)
	}

	items := make([]dto.MessageRecordDTO, 0, len(records))
	for _, r := range records {
		items = append(items, ToMessageRecordDTO(*r))
	}

	return &dto.DetailHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// campaignDetails returns one campaign's records in insertion order. The
// ownership check runs before any record is read so nothing about another
// user's campaign leaks beyond its existence.
func (hf *HistoryFlowImpl) campaignDetails(ctx context.Context, userID, campaignID uint, page, pageSize int) (*dto.DetailHistoryResponse, error) {
	campaign, err := hf.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("DETAIL_HISTORY_FAILED", "Detail history failed", err)
	}
	if campaign == nil {
		return nil, NewBusinessError("DETAIL_HISTORY_FAILED", "Detail history failed", ErrCampaignNotFound)
	}
	if campaign.UserID != userID {
		return nil, NewBusinessError("DETAIL_HISTORY_FAILED", "Detail history failed", ErrCampaignAccessDenied)
	}

	records, err := hf.messageRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("DETAIL_HISTORY_FAILED", "Detail history failed", err)
	}

	total := int64(len(records))
	start := (page - 1) * pageSize
	if start > len(records) {
		start = len(records)
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}

	items := make([]dto.MessageRecordDTO, 0, end-start)
	for _, r := range records[start:end] {
		items = append(items, ToMessageRecordDTO(*r))
	}

	return &dto.DetailHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// DeleteCampaign removes a campaign and its records, but only for its owner.
// A missing campaign reports not-found; a campaign owned by someone else
// reports access-denied.
func (hf *HistoryFlowImpl) DeleteCampaign(ctx context.Context, userID, campaignID uint, metadata *ClientMetadata) (*dto.DeleteCampaignResponse, error) {
	err := repository.WithTransaction(ctx, hf.db, func(txCtx context.Context) error {
		return hf.campaignRepo.DeleteOwned(txCtx, campaignID, userID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			err = ErrCampaignNotFound
		} else if errors.Is(err, repository.ErrCampaignAccessDenied) {
			err = ErrCampaignAccessDenied
		}

		errMsg := fmt.Sprintf("Campaign delete failed: %s", err.Error())
		_ = hf.logDeleteAttempt(ctx, userID, models.AuditActionCampaignDeleteFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CAMPAIGN_DELETE_FAILED", "Campaign delete failed", err)
	}

	if hf.cache != nil {
		_ = hf.cache.InvalidateUser(ctx, userID)
	}

	msg := fmt.Sprintf("Campaign %d deleted by user %d", campaignID, userID)
	_ = hf.logDeleteAttempt(ctx, userID, models.AuditActionCampaignDeleted, msg, true, nil, metadata)

	return &dto.DeleteCampaignResponse{CampaignID: campaignID}, nil
}

func (hf *HistoryFlowImpl) logDeleteAttempt(ctx context.Context, userID uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return hf.auditRepo.Save(ctx, audit)
}
