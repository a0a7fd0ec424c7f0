package handlers_test

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) CreateAccount(ctx context.Context, userID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, userID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, userID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, userID string, params dto.ListAccountsParams) ([]domain.Account, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// --- Mock BalanceAdjustmentService ---
type MockAdjustmentService struct {
	mock.Mock
}

var _ portssvc.BalanceAdjustmentSvc = (*MockAdjustmentService)(nil)

func (m *MockAdjustmentService) AdjustBalance(ctx context.Context, userID string, accountID string, nextBalance decimal.Decimal) (*domain.AdjustmentResult, error) {
	args := m.Called(ctx, userID, accountID, nextBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdjustmentResult), args.Error(1)
}

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

func (m *MockLedgerService) ApplyTransactionWrite(ctx context.Context, userID string, kind domain.WriteKind, transactionID string, req *dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error) {
	args := m.Called(ctx, userID, kind, transactionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerWriteResult), args.Error(1)
}

func (m *MockLedgerService) CreateTransaction(ctx context.Context, userID string, req dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerWriteResult), args.Error(1)
}

func (m *MockLedgerService) UpdateTransaction(ctx context.Context, userID string, transactionID string, req dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error) {
	args := m.Called(ctx, userID, transactionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerWriteResult), args.Error(1)
}

func (m *MockLedgerService) DeleteTransaction(ctx context.Context, userID string, transactionID string) (*domain.LedgerWriteResult, error) {
	args := m.Called(ctx, userID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerWriteResult), args.Error(1)
}

func (m *MockLedgerService) GetTransactionByID(ctx context.Context, userID string, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerService) ListTransactionsByAccount(ctx context.Context, userID string, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, userID, accountID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}

func (m *MockLedgerService) WriteBalanceAdjustment(ctx context.Context, userID string, adj domain.BalanceAdjustment) (*domain.AdjustmentResult, error) {
	args := m.Called(ctx, userID, adj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdjustmentResult), args.Error(1)
}

// --- Mock RateResolver ---
type MockRateResolver struct {
	mock.Mock
}

var _ portssvc.RateResolverSvc = (*MockRateResolver)(nil)

func (m *MockRateResolver) ResolveQuote(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeQuote), args.Error(1)
}

func (m *MockRateResolver) CurrentQuote(ctx context.Context, forceRefresh bool) (*domain.ExchangeQuote, error) {
	args := m.Called(ctx, forceRefresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeQuote), args.Error(1)
}

// --- Mock ConversionService ---
type MockConversionService struct {
	mock.Mock
}

var _ portssvc.ConversionSvc = (*MockConversionService)(nil)

func (m *MockConversionService) ResolveUSDAmount(ctx context.Context, amount decimal.Decimal, currency domain.Currency, date civil.Date) (*decimal.Decimal, error) {
	args := m.Called(ctx, amount, currency, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*decimal.Decimal), args.Error(1)
}

// --- Mock BackfillService ---
type MockBackfillService struct {
	mock.Mock
}

var _ portssvc.BackfillSvc = (*MockBackfillService)(nil)

func (m *MockBackfillService) RunBackfill(ctx context.Context, limit int) (*domain.BackfillReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BackfillReport), args.Error(1)
}

// --- Mock StatisticsService ---
type MockStatisticsService struct {
	mock.Mock
}

var _ portssvc.StatisticsSvc = (*MockStatisticsService)(nil)

func (m *MockStatisticsService) CategoryStatistics(ctx context.Context, userID string, from, to civil.Date) (*domain.CategoryStatistics, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryStatistics), args.Error(1)
}
