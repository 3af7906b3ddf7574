package dto

import "time"

// SendCampaignRequest is the dispatch payload. Recipients is the raw
// client-side string; the server splits it on newlines and semicolons.
type SendCampaignRequest struct {
	Recipients     string `json:"recipients" validate:"required" example:"09120000001;09120000002\n09120000003"`
	SenderName     string `json:"sender_name,omitempty" validate:"omitempty,max=11" example:"ACME"`
	MessageContent string `json:"message_content" validate:"required,max=2000" example:"Spring sale starts tomorrow"`
}

// SendCampaignResponse summarizes the dispatch outcome. SegmentCount is
// display-only and never affects cost.
type SendCampaignResponse struct {
	CampaignID     string    `json:"campaign_id" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	SentAt         time.Time `json:"sent_at"`
	TotalNumbers   int       `json:"total_numbers" example:"3"`
	SuccessCount   int       `json:"success_count" example:"2"`
	FailureCount   int       `json:"failure_count" example:"1"`
	CoinsUsed      uint64    `json:"coins_used" example:"3"`
	RemainingCoins uint64    `json:"remaining_coins" example:"117"`
	SegmentCount   int       `json:"segment_count" example:"1"`
}
