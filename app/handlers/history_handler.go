// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/taurodigital/sms-panel/app/dto"
	"github.com/taurodigital/sms-panel/app/middleware"
	businessflow "github.com/taurodigital/sms-panel/business_flow"
	"github.com/taurodigital/sms-panel/utils"
)

// HistoryHandlerInterface defines the contract for history handlers
type HistoryHandlerInterface interface {
	CampaignHistory(c fiber.Ctx) error
	DetailHistory(c fiber.Ctx) error
	DeleteCampaign(c fiber.Ctx) error
}

// HistoryHandler handles campaign history HTTP requests
type HistoryHandler struct {
	historyFlow businessflow.HistoryFlow
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyFlow businessflow.HistoryFlow) *HistoryHandler {
	return &HistoryHandler{
		historyFlow: historyFlow,
	}
}

func (h *HistoryHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.NewErrorResponse(message, errorCode, details))
}

func (h *HistoryHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.NewSuccessResponse(message, data))
}

// CampaignHistory lists the authenticated user's campaign summaries
func (h *HistoryHandler) CampaignHistory(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	page, pageSize := paginationParams(c)

	result, err := h.historyFlow.CampaignHistory(createRequestContext(c), userID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}

		log.Println("Campaign history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign history failed", "CAMPAIGN_HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign history retrieved successfully", result)
}

// DetailHistory lists the authenticated user's per-recipient delivery records
func (h *HistoryHandler) DetailHistory(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	page, pageSize := paginationParams(c)

	var campaignID *uint
	if q := c.Query("campaign_id"); q != "" {
		id, err := strconv.ParseUint(q, 10, 32)
		if err != nil || id == 0 {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
		}
		campaignID = utils.ToPtr(uint(id))
	}

	result, err := h.historyFlow.DetailHistory(createRequestContext(c), userID, campaignID, page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another user", "CAMPAIGN_ACCESS_DENIED", nil)
		}

		log.Println("Detail history failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Detail history failed", "DETAIL_HISTORY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Detail history retrieved successfully", result)
}

// DeleteCampaign removes one of the authenticated user's campaigns
func (h *HistoryHandler) DeleteCampaign(c fiber.Ctx) error {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok || userID == 0 {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
	}

	campaignID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || campaignID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid campaign ID", "INVALID_CAMPAIGN_ID", nil)
	}

	result, err := h.historyFlow.DeleteCampaign(createRequestContext(c), userID, uint(campaignID), clientMetadata(c))
	if err != nil {
		if businessflow.IsCampaignNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", "CAMPAIGN_NOT_FOUND", nil)
		}
		if businessflow.IsCampaignAccessDenied(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Campaign belongs to another user", "CAMPAIGN_ACCESS_DENIED", nil)
		}

		log.Println("Campaign delete failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Campaign delete failed", "CAMPAIGN_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Campaign deleted successfully", result)
}
