package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ExchangeQuote holds the VES-per-USD and VES-per-EUR rates for a calendar date.
// SourceDate differs from Date when the quote was found by walking back from Date.
type ExchangeQuote struct {
	Date       civil.Date      `json:"date"`
	VESPerUSD  decimal.Decimal `json:"vesPerUsd"`
	VESPerEUR  decimal.Decimal `json:"vesPerEur"`
	SourceDate civil.Date      `json:"sourceDate"`
	FetchedAt  time.Time       `json:"fetchedAt"`
}

// IsUsable reports whether the quote can convert VES amounts.
func (q ExchangeQuote) IsUsable() bool {
	return q.VESPerUSD.IsPositive()
}

// WithDate returns a copy of the quote keyed under another date, keeping its provenance.
func (q ExchangeQuote) WithDate(d civil.Date) ExchangeQuote {
	if !q.SourceDate.IsValid() {
		q.SourceDate = q.Date
	}
	q.Date = d
	return q
}

// USDPerEUR returns VESperEUR / VESperUSD.
func (q ExchangeQuote) USDPerEUR() (decimal.Decimal, bool) {
	if !q.VESPerUSD.IsPositive() || !q.VESPerEUR.IsPositive() {
		return decimal.Zero, false
	}
	return q.VESPerEUR.Div(q.VESPerUSD), true
}

// UnitsPerUSD returns how many units of c buy one USD under this quote.
func (q ExchangeQuote) UnitsPerUSD(c Currency) (decimal.Decimal, bool) {
	switch c {
	case USD:
		return decimal.NewFromInt(1), true
	case VES:
		if !q.VESPerUSD.IsPositive() {
			return decimal.Zero, false
		}
		return q.VESPerUSD, true
	case EUR:
		if !q.VESPerUSD.IsPositive() || !q.VESPerEUR.IsPositive() {
			return decimal.Zero, false
		}
		return q.VESPerUSD.Div(q.VESPerEUR), true
	}
	return decimal.Zero, false
}

// ConvertToUSD converts amount in currency c to USD at full precision.
// USD is the identity and does not need a quote. The second result is false
// when the quote cannot serve the conversion.
func ConvertToUSD(amount decimal.Decimal, c Currency, q *ExchangeQuote) (decimal.Decimal, bool) {
	switch c {
	case USD:
		return amount, true
	case VES:
		if q == nil || !q.VESPerUSD.IsPositive() {
			return decimal.Zero, false
		}
		return amount.Div(q.VESPerUSD), true
	case EUR:
		if q == nil {
			return decimal.Zero, false
		}
		usdPerEur, ok := q.USDPerEUR()
		if !ok {
			return decimal.Zero, false
		}
		return amount.Mul(usdPerEur), true
	}
	return decimal.Zero, false
}

// ValueInUSD computes the persisted valuation snapshot:
// amountUsd = round(amount / rate, 2) with rate in units of c per USD.
func ValueInUSD(amount decimal.Decimal, c Currency, q *ExchangeQuote) (*Valuation, bool) {
	if c == USD {
		return &Valuation{AmountUSD: RoundMoney(amount), ExchangeRateUsed: decimal.NewFromInt(1)}, true
	}
	if q == nil {
		return nil, false
	}
	rate, ok := q.UnitsPerUSD(c)
	if !ok {
		return nil, false
	}
	return &Valuation{AmountUSD: RoundMoney(amount.Div(rate)), ExchangeRateUsed: rate}, true
}

// BackfillReport summarizes one backfill run.
type BackfillReport struct {
	Scanned      int          `json:"scanned"`
	Updated      int          `json:"updated"`
	SkippedDates []civil.Date `json:"skippedDates"`
}

// CategoryTotal is the USD income and expense for one category.
type CategoryTotal struct {
	CategoryID   string          `json:"categoryID"`
	CategoryName string          `json:"categoryName"`
	IncomeUSD    decimal.Decimal `json:"incomeUsd"`
	ExpenseUSD   decimal.Decimal `json:"expenseUsd"`
	Count        int             `json:"count"`
}

// CategoryStatistics aggregates USD totals per category over a date range.
// Adjustment categories never appear in Categories.
type CategoryStatistics struct {
	From       civil.Date      `json:"from"`
	To         civil.Date      `json:"to"`
	Categories []CategoryTotal `json:"categories"`
	IncomeUSD  decimal.Decimal `json:"incomeUsd"`
	ExpenseUSD decimal.Decimal `json:"expenseUsd"`
	Unvalued   int             `json:"unvalued"` // Transactions with no quote available
}
