package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeQuote mirrors a row of exchange_quotes and of the single-row current_exchange_quote table.
type ExchangeQuote struct {
	QuoteDate  time.Time       `db:"quote_date"`
	VESPerUSD  decimal.Decimal `db:"ves_per_usd"`
	VESPerEUR  decimal.Decimal `db:"ves_per_eur"`
	SourceDate time.Time       `db:"source_date"`
	FetchedAt  time.Time       `db:"fetched_at"`
}
