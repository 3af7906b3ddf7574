package dto

import "time"

// AddCoinsRequest is the top-up payload
type AddCoinsRequest struct {
	Amount uint64 `json:"amount" validate:"required,min=1" example:"100"`
}

// AddCoinsResponse reports the balance movement of a top-up
type AddCoinsResponse struct {
	BalanceBefore uint64 `json:"balance_before" example:"20"`
	BalanceAfter  uint64 `json:"balance_after" example:"120"`
	Amount        uint64 `json:"amount" example:"100"`
}

// BalanceResponse reports the current coin balance
type BalanceResponse struct {
	Coins uint64 `json:"coins" example:"120"`
}

// LedgerEntryDTO is one row of the coin movement journal
type LedgerEntryDTO struct {
	UUID          string    `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Type          string    `json:"type" example:"debit"`
	Amount        uint64    `json:"amount" example:"3"`
	BalanceBefore uint64    `json:"balance_before" example:"120"`
	BalanceAfter  uint64    `json:"balance_after" example:"117"`
	Reason        string    `json:"reason" example:"campaign_dispatch"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// LedgerHistoryResponse is the paginated journal listing
type LedgerHistoryResponse struct {
	Items    []LedgerEntryDTO `json:"items"`
	Total    int64            `json:"total" example:"42"`
	Page     int              `json:"page" example:"1"`
	PageSize int              `json:"page_size" example:"20"`
}
