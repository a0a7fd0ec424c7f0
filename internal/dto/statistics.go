package dto

import (
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// StatisticsParams defines the date range for category statistics.
type StatisticsParams struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// CategoryTotalResponse is one category line.
type CategoryTotalResponse struct {
	CategoryID   string          `json:"categoryID"`
	CategoryName string          `json:"categoryName"`
	IncomeUSD    decimal.Decimal `json:"incomeUsd"`
	ExpenseUSD   decimal.Decimal `json:"expenseUsd"`
	Count        int             `json:"count"`
}

// CategoryStatisticsResponse defines the data returned for category statistics.
type CategoryStatisticsResponse struct {
	From       string                  `json:"from"`
	To         string                  `json:"to"`
	Categories []CategoryTotalResponse `json:"categories"`
	IncomeUSD  decimal.Decimal         `json:"incomeUsd"`
	ExpenseUSD decimal.Decimal         `json:"expenseUsd"`
	Unvalued   int                     `json:"unvalued"`
}

// ToCategoryStatisticsResponse converts statistics to their DTO, rounding totals to cents.
func ToCategoryStatisticsResponse(s *domain.CategoryStatistics) CategoryStatisticsResponse {
	res := CategoryStatisticsResponse{
		From:       s.From.String(),
		To:         s.To.String(),
		Categories: make([]CategoryTotalResponse, len(s.Categories)),
		IncomeUSD:  domain.RoundMoney(s.IncomeUSD),
		ExpenseUSD: domain.RoundMoney(s.ExpenseUSD),
		Unvalued:   s.Unvalued,
	}
	for i, c := range s.Categories {
		res.Categories[i] = CategoryTotalResponse{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			IncomeUSD:    domain.RoundMoney(c.IncomeUSD),
			ExpenseUSD:   domain.RoundMoney(c.ExpenseUSD),
			Count:        c.Count,
		}
	}
	return res
}
