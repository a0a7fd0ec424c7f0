package dto

import (
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Name           string           `json:"name" binding:"required,max=100"`
	Currency       string           `json:"currency" binding:"required,oneof=USD EUR VES"`
	OpeningBalance *decimal.Decimal `json:"openingBalance"` // Optional, recorded as an adjustment
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID     string          `json:"accountID"`
	Name          string          `json:"name"`
	Currency      domain.Currency `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy string          `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     acc.AccountID,
		Name:          acc.Name,
		Currency:      acc.Currency,
		Balance:       acc.Balance.Round(domain.MoneyPlaces),
		CreatedAt:     acc.CreatedAt,
		CreatedBy:     acc.CreatedBy,
		LastUpdatedAt: acc.LastUpdatedAt,
		LastUpdatedBy: acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int `form:"offset,default=0" binding:"min=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// AdjustBalanceRequest sets an account to a new balance.
type AdjustBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" binding:"required"`
}

// AdjustBalanceResponse reports the adjusted account and the synthesized transaction, if any.
type AdjustBalanceResponse struct {
	Account     AccountResponse      `json:"account"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// ToAdjustBalanceResponse converts an adjustment result to its DTO.
func ToAdjustBalanceResponse(res *domain.AdjustmentResult) AdjustBalanceResponse {
	out := AdjustBalanceResponse{Account: ToAccountResponse(&res.Account)}
	if res.Transaction != nil {
		txn := ToTransactionResponse(res.Transaction)
		out.Transaction = &txn
	}
	return out
}
