// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/taurodigital/sms-panel/models"
	"gorm.io/gorm"
)

// MessageRecordRepositoryImpl implements MessageRecordRepository interface
type MessageRecordRepositoryImpl struct {
	*BaseRepository[models.MessageRecord, models.MessageRecordFilter]
}

// NewMessageRecordRepository creates a new message record repository
func NewMessageRecordRepository(db *gorm.DB) MessageRecordRepository {
	return &MessageRecordRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MessageRecord, models.MessageRecordFilter](db),
	}
}

// ListByUser retrieves a user's message records ordered newest first
func (r *MessageRecordRepositoryImpl) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.MessageRecord, error) {
	filter := models.MessageRecordFilter{UserID: &userID}
	records, err := r.ByFilter(ctx, filter, "sent_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list message records for user %d: %w", userID, err)
	}

	return records, nil
}

// ListByCampaign retrieves all records of one campaign in insertion order
func (r *MessageRecordRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.MessageRecord, error) {
	filter := models.MessageRecordFilter{CampaignID: &campaignID}
	records, err := r.ByFilter(ctx, filter, "id ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list message records for campaign %d: %w", campaignID, err)
	}

	return records, nil
}

// DeleteByCampaign removes all records belonging to a campaign
func (r *MessageRecordRepositoryImpl) DeleteByCampaign(ctx context.Context, campaignID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Where("campaign_id = ?", campaignID).Delete(&models.MessageRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete message records for campaign %d: %w", campaignID, err)
	}

	return nil
}

// ByFilter retrieves message records based on filter criteria
func (r *MessageRecordRepositoryImpl) ByFilter(ctx context.Context, filter models.MessageRecordFilter, orderBy string, limit, offset int) ([]*models.MessageRecord, error) {
	db := r.getDB(ctx)

	var records []*models.MessageRecord
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

	err := query.Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find message records by filter: %w", err)
	}

	return records, nil
}

// Count returns the number of message records matching the filter
func (r *MessageRecordRepositoryImpl) Count(ctx context.Context, filter models.MessageRecordFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.MessageRecord{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count message records: %w", err)
	}

	return count, nil
}

// Exists checks if any message record matching the filter exists
func (r *MessageRecordRepositoryImpl) Exists(ctx context.Context, filter models.MessageRecordFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *MessageRecordRepositoryImpl) applyFilter(db *gorm.DB, filter models.MessageRecordFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.PhoneNumber != nil {
		db = db.Where("phone_number = ?", *filter.PhoneNumber)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
