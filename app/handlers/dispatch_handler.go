// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/middleware"
	businessflow "github.com/taurodigital/sms-panel/business_flow"
)

// DispatchHandlerInterface defines the contract for dispatch handlers
type DispatchHandlerInterface interface {
	SendCampaign(c fiber.Ctx) error
}

// DispatchHandler handles campaign dispatch HTTP requests
type DispatchHandler struct {
	dispatchFlow businessflow.DispatchFlow
	validator    *validator.Validate
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(dispatchFlow businessflow.DispatchFlow) *DispatchHandler {
	return &DispatchHandler{
		dispatchFlow: dispatchFlow,
		validator:    validator.New(),
	}
}

func (h *DispatchHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.NewErrorResponse(message, errorCode, details))
}

func (h *DispatchHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.NewSuccessResponse(message, data))
}

// SendCampaign dispatches a campaign for the authenticated user. The charge
// is one coin per recipient, taken before the carrier hand-off; insufficient
// balance answers 402 without any side effects.
func (h *DispatchHandler) SendCampaign(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.SendCampaignRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.dispatchFlow.SendCampaign(createRequestContext(c), userID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInsufficientFunds(err) {
			middleware.InsufficientFundsTotal.Inc()
			return h.ErrorResponse(c, fiber.StatusPaymentRequired, "Insufficient funds", "INSUFFICIENT_FUNDS", nil)
		}
		if businessflow.IsNoRecipients(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No recipients found in request", "NO_RECIPIENTS", nil)
		}
		if businessflow.IsMessageContentRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Message content is required", "MESSAGE_CONTENT_REQUIRED", nil)
		}
		if businessflow.IsSenderNameTooLong(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Sender name is too long", "SENDER_NAME_TOO_LONG", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Campaign dispatch failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign dispatch failed", "CAMPAIGN_DISPATCH_FAILED", nil)
	}

	middleware.CampaignsDispatchedTotal.Inc()
	middleware.CoinsDebitedTotal.Add(float64(result.CoinsUsed))
	middleware.MessagesSentTotal.WithLabelValues("success").Add(float64(result.SuccessCount))
	middleware.MessagesSentTotal.WithLabelValues("failed").Add(float64(result.FailureCount))

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign dispatched successfully", result)
}
