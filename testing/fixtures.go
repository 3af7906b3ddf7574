// Package testing provides test utilities and database setup for testing the SMS panel
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a user with the given coin balance
func (tf *TestFixtures) CreateTestUser(coins uint64) (*models.User, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := rand.Intn(10000000)

	user := &models.User{
		Username:     fmt.Sprintf("user%d", suffix),
		Email:        fmt.Sprintf("user%d@example.com", suffix),
		PasswordHash: string(hashedPassword),
		Coins:        coins,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateInactiveTestUser creates a deactivated user
func (tf *TestFixtures) CreateInactiveTestUser() (*models.User, error) {
	user, err := tf.CreateTestUser(0)
	if err != nil {
		return nil, err
	}

	user.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test user: %w", err)
	}

	return user, nil
}

// CreateTestCampaign creates a campaign summary with matching message records
func (tf *TestFixtures) CreateTestCampaign(userID uint, total, successCount int) (*models.Campaign, error) {
	if successCount > total {
		return nil, fmt.Errorf("success count %d exceeds total %d", successCount, total)
	}

	campaign := &models.Campaign{
		UserID:         userID,
		SentAt:         utils.UTCNow(),
		TotalNumbers:   total,
		SuccessCount:   successCount,
		FailureCount:   total - successCount,
		CoinsUsed:      uint64(total) * utils.CostPerRecipient,
		SenderName:     utils.ToPtr("TESTSENDER"),
		MessageContent: utils.ToPtr("test campaign message"),
	}

	if err := tf.DB.DB.Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create test campaign: %w", err)
	}

	for i := 0; i < total; i++ {
		record := &models.MessageRecord{
			UserID:         userID,
			CampaignID:     campaign.ID,
			PhoneNumber:    fmt.Sprintf("+1555%07d", i),
			Status:         models.MessageStatusSuccess,
			SentAt:         campaign.SentAt,
			SenderName:     campaign.SenderName,
			MessageContent: campaign.MessageContent,
		}
		if i >= successCount {
			record.Status = models.MessageStatusFailed
			record.ErrorMessage = utils.ToPtr(utils.FailedDeliveryMessage)
		}
		if err := tf.DB.DB.Create(record).Error; err != nil {
			return nil, fmt.Errorf("failed to create test message record %d: %w", i, err)
		}
	}

	return campaign, nil
}

// CreateTestLedgerEntry creates a ledger entry for the given user
func (tf *TestFixtures) CreateTestLedgerEntry(userID uint, entryType models.LedgerEntryType, amount, balanceBefore uint64) (*models.LedgerEntry, error) {
	balanceAfter := balanceBefore + amount
	reason := "coins_topup"
	if entryType == models.LedgerEntryTypeDebit {
		if balanceBefore < amount {
			return nil, fmt.Errorf("balance %d too low to debit %d", balanceBefore, amount)
		}
		balanceAfter = balanceBefore - amount
		reason = "campaign_dispatch"
	}

	entry := &models.LedgerEntry{
		CorrelationID: uuid.New(),
		UserID:        userID,
		Type:          entryType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		Currency:      utils.CoinCurrency,
		Reason:        reason,
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test ledger entry: %w", err)
	}

	return entry, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(userID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// TestRecipients renders n newline-separated phone numbers for dispatch requests
func TestRecipients(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("+1555%07d", i)
	}
	return out
}

// FrozenTime returns a fixed instant for deterministic assertions
func FrozenTime() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}
