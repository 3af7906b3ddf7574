// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/models"
	"gorm.io/gorm"
)

// LedgerEntryRepositoryImpl implements LedgerEntryRepository interface
type LedgerEntryRepositoryImpl struct {
	*BaseRepository[models.LedgerEntry, models.LedgerEntryFilter]
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *gorm.DB) LedgerEntryRepository {
	return &LedgerEntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.LedgerEntry, models.LedgerEntryFilter](db),
	}
}

// ListByUser retrieves a user's ledger entries ordered newest first
func (r *LedgerEntryRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.LedgerEntry, error) {
	filter := models.LedgerEntryFilter{UserID: &userID}
	entries, err := r.ByFilter(ctx, filter, "created_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries for user %d: %w", userID, err)
	}

	return entries, nil
}

// GetLatestByCorrelationID retrieves the most recent entry sharing a correlation ID
func (r *LedgerEntryRepositoryImpl) GetLatestByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*models.LedgerEntry, error) {
	filter := models.LedgerEntryFilter{CorrelationID: &correlationID}
	entries, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entry by correlation ID: %w", err)
	}

	if len(entries) == 0 {
		return nil, nil
	}

	return entries[0], nil
}

// ByFilter retrieves ledger entries based on filter criteria
func (r *LedgerEntryRepositoryImpl) ByFilter(ctx context.Context, filter models.LedgerEntryFilter, orderBy string, limit, offset int) ([]*models.LedgerEntry, error) {
	db := r.getDB(ctx)

	var entries []*models.LedgerEntry
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entries by filter: %w", err)
	}

	return entries, nil
}

// Count returns the number of ledger entries matching the filter
func (r *LedgerEntryRepositoryImpl) Count(ctx context.Context, filter models.LedgerEntryFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.LedgerEntry{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

// Exists checks if any ledger entry matching the filter exists
func (r *LedgerEntryRepositoryImpl) Exists(ctx context.Context, filter models.LedgerEntryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *LedgerEntryRepositoryImpl) applyFilter(db *gorm.DB, filter models.LedgerEntryFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CorrelationID != nil {
		db = db.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.Reason != nil {
		db = db.Where("reason = ?", *filter.Reason)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
