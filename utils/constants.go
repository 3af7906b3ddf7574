package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Dispatch constants
const (
	// CoinCurrency is the internal credit unit name
	CoinCurrency = "COIN"

	// CostPerRecipient is the flat credit cost charged per recipient,
	// regardless of how many segments the message spans.
	CostPerRecipient = 1

	// MaxSenderNameLength bounds the alphanumeric sender id
	MaxSenderNameLength = 11

	// FailedDeliveryMessage is the generic per-recipient failure reason
	// recorded for simulated delivery failures.
	FailedDeliveryMessage = "delivery failed"

	// SegmentLength is the character count of a single SMS segment.
	SegmentLength = 160
)

// MessageSegments reports how many segments a message spans. Display only;
// cost is flat per recipient.
func MessageSegments(content string) int {
	runes := len([]rune(content))
	if runes == 0 {
		return 0
	}
	return (runes + SegmentLength - 1) / SegmentLength
}

// Simulated delivery success-rate window: [MinSuccessRate, MaxSuccessRate)
const (
	MinSuccessRate = 0.80
	MaxSuccessRate = 0.95
)

// Cache keys
const (
	CampaignHistoryCacheKey = "campaign_history"
)
