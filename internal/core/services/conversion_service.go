package services

import (
	"context"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type conversionService struct {
	BaseService
	rates portssvc.RateResolverSvc
}

// NewConversionService creates a converter that resolves quotes through rates.
func NewConversionService(rates portssvc.RateResolverSvc) portssvc.ConversionSvc {
	return &conversionService{BaseService: newBaseService(), rates: rates}
}

var _ portssvc.ConversionSvc = (*conversionService)(nil)

// ResolveUSDAmount returns the unrounded USD value so that converting back with
// the same quote reproduces amount. Callers round when they persist.
func (s *conversionService) ResolveUSDAmount(ctx context.Context, amount decimal.Decimal, currency domain.Currency, date civil.Date) (*decimal.Decimal, error) {
	if !currency.IsValid() {
		return nil, apperrors.NewValidationError("unsupported currency " + currency.String())
	}
	if currency == domain.USD {
		return &amount, nil
	}

	quote, err := s.rates.ResolveQuote(ctx, date)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		s.LogDebug(ctx, "No quote for conversion", slog.String("date", date.String()), slog.String("currency", currency.String()))
		return nil, nil
	}

	usd, ok := domain.ConvertToUSD(amount, currency, quote)
	if !ok {
		return nil, nil
	}
	return &usd, nil
}
