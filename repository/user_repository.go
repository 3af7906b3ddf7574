// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrBalanceInsufficient is returned by Debit when the locked balance does
// not cover the requested amount. The business layer maps it to its own
// insufficient-funds error.
var ErrBalanceInsufficient = errors.New("balance insufficient for debit")

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByUsername retrieves a user by username
func (r *UserRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.User, error) {
	filter := models.UserFilter{Username: &username}
	users, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}

	return users[0], nil
}

// ByEmail retrieves a user by email address
func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	filter := models.UserFilter{Email: &email}
	users, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}

	return users[0], nil
}

// ByUUID retrieves a user by UUID
func (r *UserRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	filter := models.UserFilter{UUID: &id}
	users, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by UUID: %w", err)
	}

	if len(users) == 0 {
		return nil, nil
	}

	return users[0], nil
}

// Balance reads the current coin balance without locking
func (r *UserRepositoryImpl) Balance(ctx context.Context, userID uint) (uint64, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Select("coins").First(&user, userID).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
	}

	return user.Coins, nil
}

// BalanceForUpdate reads the balance under a row lock. Callers must be
// inside a WithTransaction scope; the lock is held until commit, which is
// what serializes concurrent dispatches against the same account.
func (r *UserRepositoryImpl) BalanceForUpdate(ctx context.Context, userID uint) (uint64, error) {
	db := r.getDB(ctx)

	var user models.User
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "coins").
		First(&user, userID).Error
	if err != nil {
		return 0, fmt.Errorf("failed to lock balance for user %d: %w", userID, err)
	}

	return user.Coins, nil
}

// Credit adds amount to the user's balance under a row lock and returns the
// balance observed before and after the mutation.
func (r *UserRepositoryImpl) Credit(ctx context.Context, userID uint, amount uint64) (uint64, uint64, error) {
	return r.adjustBalance(ctx, userID, amount, false)
}

// Debit subtracts amount from the user's balance under a row lock. It fails
// with ErrBalanceInsufficient when the locked balance is lower than amount,
// leaving the row untouched.
func (r *UserRepositoryImpl) Debit(ctx context.Context, userID uint, amount uint64) (uint64, uint64, error) {
	return r.adjustBalance(ctx, userID, amount, true)
}

func (r *UserRepositoryImpl) adjustBalance(ctx context.Context, userID uint, amount uint64, debit bool) (uint64, uint64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, 0, err
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

	var user models.User
	err = db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "coins").
		First(&user, userID).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to lock balance for user %d: %w", userID, err)
	}

	before := user.Coins
	var after uint64
	if debit {
		if before < amount {
			err = ErrBalanceInsufficient
			return before, before, err
		}
		after = before - amount
	} else {
		after = before + amount
	}

	err = db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"coins": after, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to update balance for user %d: %w", userID, err)
	}

	return before, after, nil
}

// UpdateLastLogin stamps the user's last successful login time
func (r *UserRepositoryImpl) UpdateLastLogin(ctx context.Context, userID uint) error {
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

	err = db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", utils.UTCNow()).Error
	if err != nil {
		return fmt.Errorf("failed to update last login for user %d: %w", userID, err)
	}

	return nil
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)

	var users []*models.User
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

	err := query.Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find users by filter: %w", err)
	}

	return users, nil
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.User{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}

// Exists checks if any user matching the filter exists
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *UserRepositoryImpl) applyFilter(db *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Username != nil {
		db = db.Where("username = ?", *filter.Username)
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}

	return db
}
