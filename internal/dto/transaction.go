package dto

import (
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionWriteRequest carries the fields of a created or updated transaction.
// Date defaults to today and Currency defaults to the account currency.
type TransactionWriteRequest struct {
	AccountID   string           `json:"accountID" binding:"required"`
	CategoryID  string           `json:"categoryID" binding:"required"`
	Date        string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Description string           `json:"description" binding:"max=255"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Type        string           `json:"type" binding:"required,oneof=income expense"`
	Currency    string           `json:"currency" binding:"omitempty,oneof=USD EUR VES"`
}

// TransactionResponse defines the data returned for a transaction.
type TransactionResponse struct {
	TransactionID    string                 `json:"transactionID"`
	AccountID        string                 `json:"accountID"`
	CategoryID       string                 `json:"categoryID"`
	Date             string                 `json:"date"`
	Description      string                 `json:"description"`
	Amount           decimal.Decimal        `json:"amount"`
	Type             domain.TransactionType `json:"type"`
	Currency         domain.Currency        `json:"currency"`
	AmountUSD        *decimal.Decimal       `json:"amountUsd"`
	ExchangeRateUsed *decimal.Decimal       `json:"exchangeRateUsed"`
	// ValuationEstimated is set when AmountUSD was computed for this response
	// and is not stored on the row yet.
	ValuationEstimated bool      `json:"valuationEstimated,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	LastUpdatedAt      time.Time `json:"lastUpdatedAt"`
}

// ToTransactionResponse converts a domain.Transaction to its DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:    t.TransactionID,
		AccountID:        t.AccountID,
		CategoryID:       t.CategoryID,
		Date:             t.Date.String(),
		Description:      t.Description,
		Amount:           t.Amount,
		Type:             t.Type,
		Currency:         t.Currency,
		AmountUSD:        t.AmountUSD,
		ExchangeRateUsed: t.ExchangeRateUsed,
		CreatedAt:        t.CreatedAt,
		LastUpdatedAt:    t.LastUpdatedAt,
	}
}

// ListTransactionsParams defines query parameters for listing an account's transactions.
type ListTransactionsParams struct {
	Limit     int    `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken string `form:"nextToken"`
}

// ListTransactionsResponse is one page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// LedgerWriteResponse is returned by every transaction write.
type LedgerWriteResponse struct {
	Kind        domain.WriteKind    `json:"kind"`
	Transaction TransactionResponse `json:"transaction"`
	Accounts    []AccountResponse   `json:"accounts"`
}

// ToLedgerWriteResponse converts a committed write to its DTO.
func ToLedgerWriteResponse(res *domain.LedgerWriteResult) LedgerWriteResponse {
	return LedgerWriteResponse{
		Kind:        res.Kind,
		Transaction: ToTransactionResponse(&res.Transaction),
		Accounts:    ToListAccountResponse(res.Accounts),
	}
}
