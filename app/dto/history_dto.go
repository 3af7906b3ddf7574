package dto

import "time"

// CampaignDTO is one row of the campaign history listing
type CampaignDTO struct {
	ID             uint      `json:"id" example:"7"`
	UUID           string    `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	SentAt         time.Time `json:"sent_at"`
	TotalNumbers   int       `json:"total_numbers" example:"3"`
	SuccessCount   int       `json:"success_count" example:"2"`
	FailureCount   int       `json:"failure_count" example:"1"`
	CoinsUsed      uint64    `json:"coins_used" example:"3"`
	SenderName     *string   `json:"sender_name,omitempty" example:"ACME"`
	MessageContent *string   `json:"message_content,omitempty"`
}

// CampaignHistoryResponse is the paginated campaign listing
type CampaignHistoryResponse struct {
	Items    []CampaignDTO `json:"items"`
	Total    int64         `json:"total" example:"42"`
	Page     int           `json:"page" example:"1"`
	PageSize int           `json:"page_size" example:"20"`
}

// MessageRecordDTO is one per-recipient row of the detail history
type MessageRecordDTO struct {
	ID             uint      `json:"id" example:"91"`
	CampaignID     uint      `json:"campaign_id" example:"7"`
	PhoneNumber    string    `json:"phone_number" example:"09120000001"`
	Status         string    `json:"status" example:"success"`
	SentAt         time.Time `json:"sent_at"`
	SenderName     *string   `json:"sender_name,omitempty" example:"ACME"`
	MessageContent *string   `json:"message_content,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty" example:"delivery failed"`
}

// DetailHistoryResponse is the paginated per-recipient listing
type DetailHistoryResponse struct {
	Items    []MessageRecordDTO `json:"items"`
	Total    int64              `json:"total" example:"420"`
	Page     int                `json:"page" example:"1"`
	PageSize int                `json:"page_size" example:"20"`
}

// DeleteCampaignResponse acknowledges a campaign deletion
type DeleteCampaignResponse struct {
	CampaignID uint `json:"campaign_id" example:"7"`
}
