// Package businessflow contains the core business logic and use cases for campaign dispatch and the coin ledger
package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/services"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/repository"
	"github.com/taurodigital/sms-panel/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginFlow handles user authentication
type LoginFlow interface {
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error)
}

// LoginFlowImpl implements the login business flow
type LoginFlowImpl struct {
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewLoginFlow creates a new login flow instance
func NewLoginFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) LoginFlow {
	return &LoginFlowImpl{
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Login authenticates a user with username/email and password
func (lf *LoginFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.LoginResponse, error) {
	if err := lf.validateLoginRequest(request); err != nil {
		return nil, NewBusinessError("LOGIN_VALIDATION_FAILED", "Login validation failed", err)
	}

	var user *models.User

	err := repository.WithTransaction(ctx, lf.db, func(txCtx context.Context) error {
		var txErr error
		user, txErr = lf.findUserByIdentifier(txCtx, request.Identifier)
		if txErr != nil {
			return txErr
		}
		if user == nil {
			return ErrUserNotFound
		}

		if !utils.IsTrue(user.IsActive) {
			return ErrAccountInactive
		}

		if txErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); txErr != nil {
			return ErrIncorrectPassword
		}

		return lf.userRepo.UpdateLastLogin(txCtx, user.ID)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	accessToken, refreshToken, err := lf.tokenService.GenerateTokens(user.ID)
	if err != nil {
		errMsg := fmt.Sprintf("Token generation failed after login: %s", err.Error())
		_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", user.ID)
	_ = lf.logLoginAttempt(ctx, user, models.AuditActionLoginSuccessful, msg, true, nil, metadata)

	return &dto.LoginResponse{
		User:    ToAuthUserDTO(*user),
		Session: ToSessionDTO(accessToken, refreshToken),
	}, nil
}

func (lf *LoginFlowImpl) findUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)

	if strings.Contains(identifier, "@") {
		return lf.userRepo.ByEmail(ctx, identifier)
	}
	return lf.userRepo.ByUsername(ctx, identifier)
}

func (lf *LoginFlowImpl) validateLoginRequest(request *dto.LoginRequest) error {
	if request.Identifier == "" {
		return ErrUserNotFound
	}
	if request.Password == "" {
		return ErrIncorrectPassword
	}
	return nil
}

func (lf *LoginFlowImpl) logLoginAttempt(ctx context.Context, user *models.User, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	var userID *uint
	if user != nil {
		userID = &user.ID
	}

	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return lf.auditRepo.Save(ctx, audit)
}
