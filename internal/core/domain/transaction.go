package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType is the stored direction of a transaction. The sign of its
// effect on the account balance is derived from it, never from the amount.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// IsValid reports whether t is income or expense.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseTransactionType normalizes and validates a transaction type.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is a single income or expense posted to one account.
type Transaction struct {
	TransactionID string          `json:"transactionID"`
	OwnerID       string          `json:"ownerID"`
	AccountID     string          `json:"accountID"`
	CategoryID    string          `json:"categoryID"`
	Date          civil.Date      `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"` // Always non-negative
	Type          TransactionType `json:"type"`
	Currency      Currency        `json:"currency"` // Resolved at write time, defaults to the account currency

	// Valuation snapshot taken at write or backfill time.
	AmountUSD        *decimal.Decimal `json:"amountUsd,omitempty"`
	ExchangeRateUsed *decimal.Decimal `json:"exchangeRateUsed,omitempty"` // Units of Currency per 1 USD

	AuditFields
}

// SignedDelta returns the effect of the transaction on its account balance:
// +amount for income and -amount for expense.
func (t Transaction) SignedDelta() decimal.Decimal {
	return SignedDelta(t.Type, t.Amount)
}

// SignedDelta returns +amount for income and -amount for expense.
func SignedDelta(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	if typ == Income {
		return amount
	}
	return amount.Neg()
}

// HasValuation reports whether both parts of the USD valuation snapshot are present.
func (t Transaction) HasValuation() bool {
	return t.AmountUSD != nil && t.ExchangeRateUsed != nil
}

// SetValuation stores a USD valuation snapshot on the transaction.
func (t *Transaction) SetValuation(v *Valuation) {
	if v == nil {
		t.AmountUSD = nil
		t.ExchangeRateUsed = nil
		return
	}
	usd, rate := v.AmountUSD, v.ExchangeRateUsed
	t.AmountUSD = &usd
	t.ExchangeRateUsed = &rate
}

// Valuation is a USD amount together with the rate it was derived from.
type Valuation struct {
	AmountUSD        decimal.Decimal
	ExchangeRateUsed decimal.Decimal
}

// TransactionValuation pairs a transaction with the valuation to persist for it.
// Amount, Currency and Date are the row fields the valuation was computed from.
type TransactionValuation struct {
	TransactionID string
	Amount        decimal.Decimal
	Currency      Currency
	Date          civil.Date
	Valuation
}

// ValuationFor builds the valuation update for t.
func ValuationFor(t Transaction, v Valuation) TransactionValuation {
	return TransactionValuation{
		TransactionID: t.TransactionID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		Date:          t.Date,
		Valuation:     v,
	}
}

// Matches reports whether t still holds the fields the valuation was computed from.
func (v TransactionValuation) Matches(t Transaction) bool {
	return t.TransactionID == v.TransactionID && t.Amount.Equal(v.Amount) && t.Currency == v.Currency && t.Date == v.Date
}

// WriteKind identifies the ledger operation being applied.
type WriteKind string

const (
	WriteCreate WriteKind = "create"
	WriteUpdate WriteKind = "update"
	WriteDelete WriteKind = "delete"
)

// LedgerWriteResult is the outcome of a committed ledger write.
// Transaction is the previous row for deletes.
type LedgerWriteResult struct {
	Kind        WriteKind   `json:"kind"`
	Transaction Transaction `json:"transaction"`
	Accounts    []Account   `json:"accounts"` // Accounts whose balance changed, with post-write balances
}

// BalanceAdjustment asks the ledger to move an account to Target. The
// category for the direction the locked balance calls for must be set.
type BalanceAdjustment struct {
	AccountID          string
	Target             decimal.Decimal
	Date               civil.Date
	Description        string
	IncreaseCategoryID string
	DecreaseCategoryID string
}

// CategoryFor returns the category id for the direction of delta.
func (a BalanceAdjustment) CategoryFor(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return a.IncreaseCategoryID
	}
	return a.DecreaseCategoryID
}

// AdjustmentResult is the outcome of a balance adjustment.
type AdjustmentResult struct {
	Account     Account      `json:"account"`
	Transaction *Transaction `json:"transaction,omitempty"`
}
