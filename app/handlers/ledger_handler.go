// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/middleware"
	businessflow "github.com/taurodigital/sms-panel/business_flow"
)

// LedgerHandlerInterface defines the contract for ledger handlers
type LedgerHandlerInterface interface {
	AddCoins(c fiber.Ctx) error
	GetBalance(c fiber.Ctx) error
	LedgerHistory(c fiber.Ctx) error
}

// LedgerHandler handles coin balance HTTP requests
type LedgerHandler struct {
	ledgerFlow businessflow.LedgerFlow
	validator  *validator.Validate
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledgerFlow businessflow.LedgerFlow) *LedgerHandler {
	return &LedgerHandler{
		ledgerFlow: ledgerFlow,
		validator:  validator.New(),
	}
}

func (h *LedgerHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.NewErrorResponse(message, errorCode, details))
}

func (h *LedgerHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.NewSuccessResponse(message, data))
}

// AddCoins credits the authenticated user's balance
func (h *LedgerHandler) AddCoins(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.AddCoinsRequest
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

	result, err := h.ledgerFlow.AddCoins(createRequestContext(c), userID, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsAmountRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Amount must be greater than zero", "AMOUNT_REQUIRED", nil)
		}
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Coin top-up failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Coin top-up failed", "TOPUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Coins added successfully", result)
}

// GetBalance reads the authenticated user's coin balance
func (h *LedgerHandler) GetBalance(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	result, err := h.ledgerFlow.GetBalance(createRequestContext(c), userID)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}

		log.Println("Balance read failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Balance read failed", "BALANCE_READ_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Balance retrieved successfully", result)
}

// LedgerHistory lists the authenticated user's coin movements
func (h *LedgerHandler) LedgerHistory(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	page, pageSize := paginationParams(c)

	result, err := h.ledgerFlow.LedgerHistory(createRequestContext(c), userID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Ledger history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Ledger history failed", "LEDGER_HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ledger history retrieved successfully", result)
}

// paginationParams reads page/page_size query parameters with defaults
func paginationParams(c fiber.Ctx) (int, int) {
	page := 1
	pageSize := 20

	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			page = parsed
		}
	}
	if v := c.Query("page_size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			pageSize = parsed
		}
	}

	return page, pageSize
}
