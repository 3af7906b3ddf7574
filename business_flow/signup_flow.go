// Package businessflow contains the core business logic and use cases for campaign dispatch and the coin ledger
package businessflow

import (
	"context"
	"fmt"

	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/services"
	"github.com/taurodigital/sms-panel/models"
	"github.com/taurodigital/sms-panel/repository"
	"github.com/taurodigital/sms-panel/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignupFlow handles account registration
type SignupFlow interface {
	Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error)
}

// SignupFlowImpl implements the signup business flow
type SignupFlowImpl struct {
	userRepo     repository.UserRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
}

// NewSignupFlow creates a new signup flow instance
func NewSignupFlow(
	userRepo repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
) SignupFlow {
	return &SignupFlowImpl{
		userRepo:     userRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
	}
}

// Signup registers a new account with a zero coin balance and issues tokens
func (sf *SignupFlowImpl) Signup(ctx context.Context, request *dto.SignupRequest, metadata *ClientMetadata) (*dto.SignupResponse, error) {
	var user *models.User

	err := repository.WithTransaction(ctx, sf.db, func(txCtx context.Context) error {
		existing, txErr := sf.userRepo.ByUsername(txCtx, request.Username)
		if txErr != nil {
			return txErr
		}
		if existing != nil {
			return ErrUsernameAlreadyExists
		}

		existing, txErr = sf.userRepo.ByEmail(txCtx, request.Email)
		if txErr != nil {
			return txErr
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}

		hashedPassword, txErr := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
		if txErr != nil {
			return txErr
		}

		user = &models.User{
			Username:     request.Username,
			Email:        request.Email,
			PasswordHash: string(hashedPassword),
			Coins:        0,
			IsActive:     utils.ToPtr(true),
		}

		return sf.userRepo.Save(txCtx, user)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Registration failed: %s", err.Error())
		_ = sf.logSignupAttempt(ctx, nil, models.AuditActionRegisterFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SIGNUP_FAILED", "Registration failed", err)
	}

	accessToken, refreshToken, err := sf.tokenService.GenerateTokens(user.ID)
	if err != nil {
		errMsg := fmt.Sprintf("Token generation failed after registration: %s", err.Error())
		_ = sf.logSignupAttempt(ctx, &user.ID, models.AuditActionRegisterFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("SIGNUP_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("User registered successfully: %d", user.ID)
	_ = sf.logSignupAttempt(ctx, &user.ID, models.AuditActionRegisterCompleted, msg, true, nil, metadata)

	return &dto.SignupResponse{
		User:    ToAuthUserDTO(*user),
		Session: ToSessionDTO(accessToken, refreshToken),
	}, nil
}

func (sf *SignupFlowImpl) logSignupAttempt(ctx context.Context, userID *uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
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

	return sf.auditRepo.Save(ctx, audit)
}
