// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for platform users and their coin balances.
// Credit and Debit take the row lock themselves and must run inside a
// transaction started with WithTransaction.
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.User, error)
	Balance(ctx context.Context, userID uint) (uint64, error)
	// BalanceForUpdate reads the balance under SELECT ... FOR UPDATE,
	// serializing concurrent dispatches for the same user.
	BalanceForUpdate(ctx context.Context, userID uint) (uint64, error)
	Credit(ctx context.Context, userID uint, amount uint64) (before, after uint64, err error)
	Debit(ctx context.Context, userID uint, amount uint64) (before, after uint64, err error)
	UpdateLastLogin(ctx context.Context, userID uint) error
}

// CampaignRepository defines operations for campaign summaries
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.Campaign, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Campaign, error)
	// DeleteOwned removes a campaign and its message records only when
	// the campaign belongs to userID. Returns ErrCampaignNotFound when no
	// such campaign exists and ErrCampaignAccessDenied when it belongs to
	// another user.
	DeleteOwned(ctx context.Context, campaignID, userID uint) error
}

// MessageRecordRepository defines operations for per-recipient delivery records
type MessageRecordRepository interface {
	Repository[models.MessageRecord, models.MessageRecordFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.MessageRecord, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.MessageRecord, error)
	DeleteByCampaign(ctx context.Context, campaignID uint) error
}

// LedgerEntryRepository defines operations for the coin movement journal
type LedgerEntryRepository interface {
	Repository[models.LedgerEntry, models.LedgerEntryFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.LedgerEntry, error)
	GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.LedgerEntry, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
