package models

import "time"

// MessageDeliveryStatus enumerates the outcome of a single recipient send
type MessageDeliveryStatus string

const (
	MessageStatusSuccess MessageDeliveryStatus = "success"
	MessageStatusFailed  MessageDeliveryStatus = "failed"
)

// MessageRecord is the per-recipient row of a campaign. The set of records
// for a campaign equals the parent's TotalNumbers; rows are written in bulk
// right after the summary and their creation is best-effort (a failed bulk
// write never rolls back the summary or the debit).
type MessageRecord struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	UserID     uint `gorm:"not null;index:idx_message_records_user_id" json:"user_id"`
	CampaignID uint `gorm:"not null;index:idx_message_records_campaign_id" json:"campaign_id"`

	PhoneNumber string                `gorm:"size:32;not null;index:idx_message_records_phone_number" json:"phone_number"`
	Status      MessageDeliveryStatus `gorm:"type:varchar(10);not null;index:idx_message_records_status" json:"status"`
	SentAt      time.Time             `gorm:"not null" json:"sent_at"`

	SenderName     *string `gorm:"size:11" json:"sender_name,omitempty"`
	MessageContent *string `gorm:"type:text" json:"message_content,omitempty"`

	// ErrorMessage is set only when Status == failed
	ErrorMessage *string `gorm:"type:text" json:"error_message,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_message_records_created_at" json:"created_at"`

	// Relations
	Campaign Campaign `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"campaign,omitempty"`
}

func (MessageRecord) TableName() string { return "message_records" }

// MessageRecordFilter provides filter fields for repository queries
type MessageRecordFilter struct {
	ID            *uint
	UserID        *uint
	CampaignID    *uint
	PhoneNumber   *string
	Status        *MessageDeliveryStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
