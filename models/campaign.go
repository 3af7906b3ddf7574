package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Campaign is the summary record of one dispatch call: one batch of
// recipients, one message, one sender. It is created only after the coin
// debit committed, and is immutable afterwards except for deletion by its
// owner. SuccessCount + FailureCount == TotalNumbers always holds.
type Campaign struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	UserID uint      `gorm:"not null;index:idx_campaigns_user_id" json:"user_id"`

	SentAt       time.Time `gorm:"not null;index:idx_campaigns_sent_at" json:"sent_at"`
	TotalNumbers int       `gorm:"not null" json:"total_numbers"`
	SuccessCount int       `gorm:"not null" json:"success_count"`
	FailureCount int       `gorm:"not null" json:"failure_count"`
	CoinsUsed    uint64    `gorm:"not null" json:"coins_used"`

	SenderName     *string `gorm:"size:11" json:"sender_name,omitempty"`
	MessageContent *string `gorm:"type:text" json:"message_content,omitempty"`

	CreatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relations
	User     User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Messages []MessageRecord `gorm:"foreignKey:CampaignID" json:"messages,omitempty"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate ensures UUID is set
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// CampaignFilter represents filter criteria for campaign queries
type CampaignFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	UserID        *uint
	SentAfter     *time.Time
	SentBefore    *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
