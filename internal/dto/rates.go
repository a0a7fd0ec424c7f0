package dto

import (
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ExchangeQuoteResponse defines the data returned for a quote.
type ExchangeQuoteResponse struct {
	Date       string           `json:"date"`
	SourceDate string           `json:"sourceDate"`
	VESPerUSD  decimal.Decimal  `json:"vesPerUsd"`
	VESPerEUR  decimal.Decimal  `json:"vesPerEur"`
	USDPerEUR  *decimal.Decimal `json:"usdPerEur"`
	FetchedAt  time.Time        `json:"fetchedAt"`
}

// ToExchangeQuoteResponse converts a domain.ExchangeQuote to its DTO.
func ToExchangeQuoteResponse(q *domain.ExchangeQuote) ExchangeQuoteResponse {
	res := ExchangeQuoteResponse{
		Date:      q.Date.String(),
		VESPerUSD: q.VESPerUSD,
		VESPerEUR: q.VESPerEUR,
		FetchedAt: q.FetchedAt,
	}
	if q.SourceDate.IsValid() {
		res.SourceDate = q.SourceDate.String()
	} else {
		res.SourceDate = res.Date
	}
	if usdPerEur, ok := q.USDPerEUR(); ok {
		res.USDPerEUR = &usdPerEur
	}
	return res
}

// CurrentQuoteParams defines query parameters for the current quote.
type CurrentQuoteParams struct {
	Refresh bool `form:"refresh"`
}

// ConvertParams defines query parameters for a USD conversion.
type ConvertParams struct {
	Amount   string `form:"amount" binding:"required"`
	Currency string `form:"currency" binding:"required,oneof=USD EUR VES"`
	Date     string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ConversionResponse reports a USD conversion. AmountUSD is null when no
// quote was available for the date.
type ConversionResponse struct {
	Amount    decimal.Decimal  `json:"amount"`
	Currency  domain.Currency  `json:"currency"`
	Date      string           `json:"date"`
	AmountUSD *decimal.Decimal `json:"amountUsd"`
	Available bool             `json:"available"`
}

// BackfillRequest starts a backfill run. A zero limit uses the configured batch size.
type BackfillRequest struct {
	Limit int `json:"limit" binding:"min=0,max=10000"`
}

// BackfillResponse reports the result of a backfill run.
type BackfillResponse struct {
	Scanned      int      `json:"scanned"`
	Updated      int      `json:"updated"`
	SkippedDates []string `json:"skippedDates"`
}

// ToBackfillResponse converts a backfill report to its DTO.
func ToBackfillResponse(r *domain.BackfillReport) BackfillResponse {
	res := BackfillResponse{Scanned: r.Scanned, Updated: r.Updated, SkippedDates: make([]string, len(r.SkippedDates))}
	for i, d := range r.SkippedDates {
		res.SkippedDates[i] = d.String()
	}
	return res
}
