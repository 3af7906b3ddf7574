package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerEntryType represents the direction of a balance movement
type LedgerEntryType string

const (
	LedgerEntryTypeCredit LedgerEntryType = "credit" // Top-up
	LedgerEntryTypeDebit  LedgerEntryType = "debit"  // Campaign charge
)

// LedgerEntry is an immutable journal record of a single coin movement.
// The authoritative balance lives on the user row; entries capture the
// before/after values observed under the row lock so the journal replays
// consistently. A campaign charge carries the campaign UUID as its
// CorrelationID; the charge commits before the summary row exists, so no
// row-level foreign key is possible.
type LedgerEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_ledger_entries_uuid" json:"uuid"`
	CorrelationID uuid.UUID `gorm:"type:uuid;index:idx_ledger_entries_correlation_id;not null" json:"correlation_id"`

	UserID uint `gorm:"not null;index:idx_ledger_entries_user_id" json:"user_id"`

	Type          LedgerEntryType `gorm:"type:varchar(10);not null;index:idx_ledger_entries_type" json:"type"`
	Amount        uint64          `gorm:"not null" json:"amount"`
	BalanceBefore uint64          `gorm:"not null" json:"balance_before"`
	BalanceAfter  uint64          `gorm:"not null" json:"balance_after"`
	Currency      string          `gorm:"type:varchar(8);not null;default:'COIN'" json:"currency"`

	Reason      string          `gorm:"type:varchar(100);not null" json:"reason"`
	Description string          `gorm:"type:text" json:"description"`
	Metadata    json.RawMessage `gorm:"type:jsonb;default:'{}'" json:"metadata"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_ledger_entries_created_at" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// BeforeCreate ensures UUID and CorrelationID are set
func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.CorrelationID == uuid.Nil {
		e.CorrelationID = uuid.New()
	}
	return nil
}

// LedgerEntryFilter represents filter criteria for ledger queries
type LedgerEntryFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CorrelationID *uuid.UUID
	UserID        *uint
	Type          *LedgerEntryType
	Reason        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
