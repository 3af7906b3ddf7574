// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthUserDTO converts a user model to AuthUserDTO for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	d := dto.AuthUserDTO{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Coins:     user.Coins,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		d.LastLoginAt = user.LastLoginAt.Format(time.RFC3339)
	}

	return d
}

// ToSessionDTO builds the token envelope returned by auth flows
func ToSessionDTO(accessToken, refreshToken string) dto.SessionDTO {
	return dto.SessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(utils.AccessTokenTTL.Seconds()),
		TokenType:    "Bearer",
	}
}

// ToCampaignDTO converts a campaign model to its history listing row
func ToCampaignDTO(campaign models.Campaign) dto.CampaignDTO {
	return dto.CampaignDTO{
		ID:             campaign.ID,
		UUID:           campaign.UUID.String(),
		SentAt:         campaign.SentAt,
		TotalNumbers:   campaign.TotalNumbers,
		SuccessCount:   campaign.SuccessCount,
		FailureCount:   campaign.FailureCount,
		CoinsUsed:      campaign.CoinsUsed,
		SenderName:     campaign.SenderName,
		MessageContent: campaign.MessageContent,
	}
}

// ToMessageRecordDTO converts a message record model to its listing row
func ToMessageRecordDTO(record models.MessageRecord) dto.MessageRecordDTO {
	return dto.MessageRecordDTO{
		ID:             record.ID,
		CampaignID:     record.CampaignID,
		PhoneNumber:    record.PhoneNumber,
		Status:         string(record.Status),
		SentAt:         record.SentAt,
		SenderName:     record.SenderName,
		MessageContent: record.MessageContent,
		ErrorMessage:   record.ErrorMessage,
	}
}

// ToLedgerEntryDTO converts a ledger entry model to its journal row
func ToLedgerEntryDTO(entry models.LedgerEntry) dto.LedgerEntryDTO {
	return dto.LedgerEntryDTO{
		UUID:          entry.UUID.String(),
		Type:          string(entry.Type),
		Amount:        entry.Amount,
		BalanceBefore: entry.BalanceBefore,
		BalanceAfter:  entry.BalanceAfter,
		Reason:        entry.Reason,
		Description:   entry.Description,
		CreatedAt:     entry.CreatedAt,
	}
}
