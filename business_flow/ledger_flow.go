// Package businessflow contains the core business logic and use cases for campaign dispatch and the coin ledger
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/repository"
	"github.com/taurodigital/sms-panel/utils"
	"gorm.io/gorm"
)

// LedgerFlow handles coin top-ups, balance reads, and the movement journal
type LedgerFlow interface {
	AddCoins(ctx context.Context, userID uint, request *dto.AddCoinsRequest, metadata *ClientMetadata) (*dto.AddCoinsResponse, error)
	GetBalance(ctx context.Context, userID uint) (*dto.BalanceResponse, error)
	LedgerHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.LedgerHistoryResponse, error)
}

// LedgerFlowImpl implements the ledger business flow
type LedgerFlowImpl struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerEntryRepository
	auditRepo  repository.AuditLogRepository
	db         *gorm.DB
}

// NewLedgerFlow creates a new ledger flow instance
func NewLedgerFlow(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerEntryRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) LedgerFlow {
	return &LedgerFlowImpl{
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
		auditRepo:  auditRepo,
		db:         db,
	}
}

// AddCoins credits the user's balance and journals the movement atomically
func (lf *LedgerFlowImpl) AddCoins(ctx context.Context, userID uint, request *dto.AddCoinsRequest, metadata *ClientMetadata) (*dto.AddCoinsResponse, error) {
	if request.Amount == 0 {
		return nil, NewBusinessError("TOPUP_VALIDATION_FAILED", "Top-up validation failed", ErrAmountRequired)
	}

	var before, after uint64

	err := repository.WithTransaction(ctx, lf.db, func(txCtx context.Context) error {
		user, txErr := lf.userRepo.ByID(txCtx, userID)
		if txErr != nil {
			return txErr
		}
		if user == nil {
			return ErrUserNotFound
		}
		if !utils.IsTrue(user.IsActive) {
			return ErrAccountInactive
		}

		before, after, txErr = lf.userRepo.Credit(txCtx, userID, request.Amount)
		if txErr != nil {
			return txErr
		}

		entryMetadata, _ := json.Marshal(map[string]any{"source": "manual_topup"})
		entry := &models.LedgerEntry{
			CorrelationID: uuid.New(),
			UserID:        userID,
			Type:          models.LedgerEntryTypeCredit,
			Amount:        request.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			Currency:      utils.CoinCurrency,
			Reason:        "coins_topup",
			Description:   fmt.Sprintf("Top-up of %d coins", request.Amount),
			Metadata:      entryMetadata,
		}

		return lf.ledgerRepo.Save(txCtx, entry)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Coin top-up failed: %s", err.Error())
		_ = lf.logLedgerAction(ctx, userID, models.AuditActionCoinsCreditFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("TOPUP_FAILED", "Coin top-up failed", err)
	}

	msg := fmt.Sprintf("Credited %d coins to user %d (balance %d -> %d)", request.Amount, userID, before, after)
	_ = lf.logLedgerAction(ctx, userID, models.AuditActionCoinsCredited, msg, true, nil, metadata)

	return &dto.AddCoinsResponse{
		BalanceBefore: before,
		BalanceAfter:  after,
		Amount:        request.Amount,
	}, nil
}

// GetBalance reads the user's current coin balance
func (lf *LedgerFlowImpl) GetBalance(ctx context.Context, userID uint) (*dto.BalanceResponse, error) {
	user, err := lf.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("BALANCE_READ_FAILED", "Balance read failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("BALANCE_READ_FAILED", "Balance read failed", ErrUserNotFound)
	}

	return &dto.BalanceResponse{Coins: user.Coins}, nil
}

// LedgerHistory lists the user's coin movements, newest first
func (lf *LedgerFlowImpl) LedgerHistory(ctx context.Context, userID uint, page, pageSize int) (*dto.LedgerHistoryResponse, error) {
	if err := validatePagination(page, pageSize); err != nil {
		return nil, NewBusinessError("LEDGER_HISTORY_VALIDATION_FAILED", "Ledger history validation failed", err)
	}

	entries, err := lf.ledgerRepo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("LEDGER_HISTORY_FAILED", "Ledger history failed", err)
	}

	total, err := lf.ledgerRepo.Count(ctx, models.LedgerEntryFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("LEDGER_HISTORY_FAILED", "Ledger history failed", err)
	}

	items := make([]dto.LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, ToLedgerEntryDTO(*e))
	}

	return &dto.LedgerHistoryResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (lf *LedgerFlowImpl) logLedgerAction(ctx context.Context, userID uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return lf.auditRepo.Save(ctx, audit)
}

func validatePagination(page, pageSize int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if pageSize < 1 || pageSize > 100 {
		return ErrInvalidPageSize
	}
	return nil
}
