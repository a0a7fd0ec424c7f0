package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type statisticsService struct {
	BaseService
	categoryRepo    portsrepo.CategoryReader
	transactionRepo portsrepo.TransactionReader
	conversion      portssvc.ConversionSvc
}

// NewStatisticsService creates the category statistics service.
func NewStatisticsService(categoryRepo portsrepo.CategoryReader, transactionRepo portsrepo.TransactionReader, conversion portssvc.ConversionSvc) portssvc.StatisticsSvc {
	return &statisticsService{
		BaseService:     newBaseService(),
		categoryRepo:    categoryRepo,
		transactionRepo: transactionRepo,
		conversion:      conversion,
	}
}

var _ portssvc.StatisticsSvc = (*statisticsService)(nil)

func (s *statisticsService) CategoryStatistics(ctx context.Context, userID string, from, to civil.Date) (*domain.CategoryStatistics, error) {
	if !from.IsValid() || !to.IsValid() || to.Before(from) {
		return nil, apperrors.NewValidationError("invalid date range")
	}

	categories, err := s.categoryRepo.ListCategories(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories for statistics")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	byID := make(map[string]domain.Category, len(categories))
	for _, c := range categories {
		byID[c.CategoryID] = c
	}

	rows, err := s.transactionRepo.ListTransactionsByOwner(ctx, userID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions for statistics")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	stats := &domain.CategoryStatistics{From: from, To: to, IncomeUSD: decimal.Zero, ExpenseUSD: decimal.Zero}
	totals := map[string]*domain.CategoryTotal{}
	for _, row := range rows {
		category, known := byID[row.CategoryID]
		if known && category.IsAdjustment() {
			continue
		}

		usd, ok := s.usdValue(ctx, row)
		if !ok {
			stats.Unvalued++
			continue
		}

		total, exists := totals[row.CategoryID]
		if !exists {
			total = &domain.CategoryTotal{CategoryID: row.CategoryID, CategoryName: category.Name, IncomeUSD: decimal.Zero, ExpenseUSD: decimal.Zero}
			totals[row.CategoryID] = total
		}
		total.Count++
		if row.Type == domain.Income {
			total.IncomeUSD = total.IncomeUSD.Add(usd)
			stats.IncomeUSD = stats.IncomeUSD.Add(usd)
		} else {
			total.ExpenseUSD = total.ExpenseUSD.Add(usd)
			stats.ExpenseUSD = stats.ExpenseUSD.Add(usd)
		}
	}

	stats.Categories = make([]domain.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		stats.Categories = append(stats.Categories, *t)
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		if stats.Categories[i].CategoryName != stats.Categories[j].CategoryName {
			return stats.Categories[i].CategoryName < stats.Categories[j].CategoryName
		}
		return stats.Categories[i].CategoryID < stats.Categories[j].CategoryID
	})

	if stats.Unvalued > 0 {
		s.LogWarn(ctx, "Statistics left transactions without a USD value", slog.Int("unvalued", stats.Unvalued))
	}
	return stats, nil
}

// usdValue prefers the stored snapshot and converts on the fly otherwise.
func (s *statisticsService) usdValue(ctx context.Context, row domain.Transaction) (decimal.Decimal, bool) {
	if row.AmountUSD != nil {
		return *row.AmountUSD, true
	}
	if s.conversion == nil {
		return decimal.Zero, false
	}
	usd, err := s.conversion.ResolveUSDAmount(ctx, row.Amount, row.Currency, row.Date)
	if err != nil || usd == nil {
		return decimal.Zero, false
	}
	return domain.RoundMoney(*usd), true
}
