// Package models contains domain entities and business models for the SMS dispatch platform
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform account with a prepaid coin balance.
// The balance is mutated exclusively through the user repository's
// Credit/Debit operations, which lock the row for the duration of the
// enclosing transaction. Coins is unsigned so a negative balance is
// unrepresentable.
type User struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	Username string    `gorm:"size:60;not null;uniqueIndex:uk_users_username" json:"username"`
	Email    string    `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	Coins uint64 `gorm:"not null;default:0" json:"coins"`

	IsActive *bool `gorm:"default:true;index:idx_users_is_active" json:"is_active"`

	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_users_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	Campaigns     []Campaign    `gorm:"foreignKey:UserID" json:"-"`
	LedgerEntries []LedgerEntry `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs     []AuditLog    `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate ensures UUID is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Username      *string
	Email         *string
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
