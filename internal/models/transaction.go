package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction mirrors a row of the transactions table.
type Transaction struct {
	TransactionID    string              `db:"transaction_id"`
	OwnerID          string              `db:"owner_id"`
	AccountID        string              `db:"account_id"`
	CategoryID       string              `db:"category_id"`
	TransactionDate  time.Time           `db:"transaction_date"` // DATE column
	Description      string              `db:"description"`
	Amount           decimal.Decimal     `db:"amount"`
	TransactionType  string              `db:"transaction_type"`
	Currency         string              `db:"currency"`
	AmountUSD        decimal.NullDecimal `db:"amount_usd"`
	ExchangeRateUsed decimal.NullDecimal `db:"exchange_rate_used"`
	AuditFields
}
