package services_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BackfillServiceTestSuite struct {
	suite.Suite
	store *memLedger
	rates *MockRateResolver
	now   time.Time
}

func (suite *BackfillServiceTestSuite) SetupTest() {
	suite.store = newMemLedger()
	suite.rates = new(MockRateResolver)
	suite.now = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	rows := []struct {
		id       string
		day      string
		amount   string
		currency domain.Currency
	}{
		{"t1", "2024-03-01", "100", domain.VES},
		{"t2", "2024-03-01", "50", domain.EUR},
		{"t3", "2024-03-02", "362.50", domain.VES},
		{"t4", "2024-03-03", "10", domain.VES},
	}
	for _, r := range rows {
		suite.store.seedTransaction(domain.Transaction{
			TransactionID: r.id,
			OwnerID:       "user-1",
			AccountID:     "acc-1",
			CategoryID:    "cat-1",
			Date:          date(r.day),
			Amount:        dec(r.amount),
			Type:          domain.Expense,
			Currency:      r.currency,
		})
	}
	valued := domain.Transaction{TransactionID: "t0", OwnerID: "user-1", AccountID: "acc-1", Date: date("2024-03-01"), Amount: dec("5"), Type: domain.Expense, Currency: domain.USD}
	valued.SetValuation(&domain.Valuation{AmountUSD: dec("5"), ExchangeRateUsed: dec("1")})
	suite.store.seedTransaction(valued)
}

func TestBackfillServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BackfillServiceTestSuite))
}

func (suite *BackfillServiceTestSuite) newService(options ...services.BackfillOption) portssvc.BackfillSvc {
	options = append([]services.BackfillOption{
		services.WithDateDelay(0),
		services.WithBackfillClock(func() time.Time { return suite.now }),
	}, options...)
	return services.NewBackfillService(suite.store, suite.rates, options...)
}

func (suite *BackfillServiceTestSuite) expectQuotes() {
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-01")).Return(quote("2024-03-01", "36.25", "39.15"), nil)
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-02")).Return(quote("2024-03-02", "36.25", "39.15"), nil)
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-03")).Return(nil, nil)
}

func (suite *BackfillServiceTestSuite) TestRun_ValuesRowsOncePerDate() {
	suite.expectQuotes()

	report, err := suite.newService().RunBackfill(context.Background(), 0)

	suite.Require().NoError(err)
	suite.Equal(4, report.Scanned)
	suite.Equal(3, report.Updated)
	suite.Equal([]civil.Date{date("2024-03-03")}, report.SkippedDates)
	suite.rates.AssertNumberOfCalls(suite.T(), "ResolveQuote", 3)

	t1, _ := suite.store.transaction("t1")
	suite.Require().True(t1.HasValuation())
	suite.Equal("2.76", t1.AmountUSD.String())
	suite.Equal("36.25", t1.ExchangeRateUsed.String())

	t2, _ := suite.store.transaction("t2")
	suite.Require().True(t2.HasValuation())
	suite.Equal("54", t2.AmountUSD.String())

	t3, _ := suite.store.transaction("t3")
	suite.Equal("10", t3.AmountUSD.String())

	t4, _ := suite.store.transaction("t4")
	suite.False(t4.HasValuation())
}

func (suite *BackfillServiceTestSuite) TestRun_IsIdempotent() {
	suite.expectQuotes()
	svc := suite.newService(services.WithDeferral(0))

	_, err := svc.RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	t1, _ := suite.store.transaction("t1")
	report, err := svc.RunBackfill(context.Background(), 0)

	suite.Require().NoError(err)
	suite.Equal(1, report.Scanned, "only the date without a quote is left")
	suite.Equal(0, report.Updated)
	suite.Equal([]civil.Date{date("2024-03-03")}, report.SkippedDates)

	again, _ := suite.store.transaction("t1")
	suite.Equal(t1.AmountUSD.String(), again.AmountUSD.String())
	suite.Equal(t1.ExchangeRateUsed.String(), again.ExchangeRateUsed.String())
	t0, _ := suite.store.transaction("t0")
	suite.Equal("5", t0.AmountUSD.String(), "valued rows are never touched")
}

func (suite *BackfillServiceTestSuite) TestRun_DefersDatesWithoutQuote() {
	suite.expectQuotes()
	svc := suite.newService(services.WithDeferral(time.Hour))

	_, err := svc.RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	until, ok := suite.store.deferredUntil(date("2024-03-03"))
	suite.Require().True(ok)
	suite.True(suite.now.Add(time.Hour).Equal(until))

	report, err := svc.RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	suite.Equal(0, report.Scanned)
	suite.Empty(report.SkippedDates)

	report, err = suite.newService(services.WithRetryDeferred()).RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	suite.Equal(1, report.Scanned, "deferred dates can be retried on demand")

	suite.now = suite.now.Add(2 * time.Hour)
	report, err = svc.RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	suite.Equal(1, report.Scanned)
	suite.Equal([]civil.Date{date("2024-03-03")}, report.SkippedDates)
}

func (suite *BackfillServiceTestSuite) TestRun_UnresolvableDatesDoNotStarveLaterOnes() {
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-01")).Return(nil, nil)
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-02")).Return(quote("2024-03-02", "36.25", "39.15"), nil)
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-03")).Return(quote("2024-03-03", "36.25", "39.15"), nil)
	svc := suite.newService(services.WithBatchLimit(2))

	first, err := svc.RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	suite.Equal(0, first.Updated)
	suite.Equal([]civil.Date{date("2024-03-01")}, first.SkippedDates)

	second, err := svc.RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	suite.Equal(2, second.Scanned)
	suite.Equal(2, second.Updated)
	t4, _ := suite.store.transaction("t4")
	suite.True(t4.HasValuation())
}

func (suite *BackfillServiceTestSuite) TestRun_RowEditedDuringRunIsNotOverwritten() {
	suite.expectQuotes()
	suite.store.afterValuationSelect = func() {
		// A user edit lands with its write-time valuation failed.
		t1, _ := suite.store.transaction("t1")
		t1.Amount = dec("725")
		suite.store.seedTransaction(t1)
	}

	report, err := suite.newService().RunBackfill(context.Background(), 0)

	suite.Require().NoError(err)
	suite.Equal(2, report.Updated)
	t1, _ := suite.store.transaction("t1")
	suite.False(t1.HasValuation(), "the stale valuation of 100 VES is dropped")

	suite.store.afterValuationSelect = nil
	_, err = suite.newService().RunBackfill(context.Background(), 0)
	suite.Require().NoError(err)
	t1, _ = suite.store.transaction("t1")
	suite.Require().True(t1.HasValuation())
	suite.Equal("20", t1.AmountUSD.String())
}

func (suite *BackfillServiceTestSuite) TestRun_USDRowsNeedNoQuote() {
	store := newMemLedger()
	store.seedTransaction(domain.Transaction{TransactionID: "u1", OwnerID: "user-1", AccountID: "acc-1", Date: date("2024-03-05"), Amount: dec("12.5"), Type: domain.Income, Currency: domain.USD})
	store.seedTransaction(domain.Transaction{TransactionID: "v1", OwnerID: "user-1", AccountID: "acc-1", Date: date("2024-03-06"), Amount: dec("10"), Type: domain.Expense, Currency: domain.VES})
	store.seedTransaction(domain.Transaction{TransactionID: "u2", OwnerID: "user-1", AccountID: "acc-1", Date: date("2024-03-06"), Amount: dec("3"), Type: domain.Expense, Currency: domain.USD})
	suite.rates.On("ResolveQuote", mock.Anything, date("2024-03-06")).Return(nil, nil)

	svc := services.NewBackfillService(store, suite.rates, services.WithDateDelay(0))
	report, err := svc.RunBackfill(context.Background(), 0)

	suite.Require().NoError(err)
	suite.Equal(2, report.Updated)
	suite.Equal([]civil.Date{date("2024-03-06")}, report.SkippedDates)
	suite.rates.AssertNotCalled(suite.T(), "ResolveQuote", mock.Anything, date("2024-03-05"))

	u1, _ := store.transaction("u1")
	suite.Equal("12.5", u1.AmountUSD.String())
	suite.Equal("1", u1.ExchangeRateUsed.String())
	u2, _ := store.transaction("u2")
	suite.True(u2.HasValuation())
	v1, _ := store.transaction("v1")
	suite.False(v1.HasValuation())
}

func (suite *BackfillServiceTestSuite) TestRun_RespectsLimit() {
	suite.expectQuotes()

	report, err := suite.newService().RunBackfill(context.Background(), 1)

	suite.Require().NoError(err)
	suite.Equal(1, report.Scanned)
	suite.Equal(1, report.Updated)
	suite.Empty(report.SkippedDates)
	t2, _ := suite.store.transaction("t2")
	suite.False(t2.HasValuation())
}

func (suite *BackfillServiceTestSuite) TestRun_LimitCappedByBatchLimit() {
	suite.expectQuotes()

	report, err := suite.newService(services.WithBatchLimit(2)).RunBackfill(context.Background(), 500)

	suite.Require().NoError(err)
	suite.Equal(2, report.Scanned)
	suite.rates.AssertNumberOfCalls(suite.T(), "ResolveQuote", 1)
}

func (suite *BackfillServiceTestSuite) TestRun_WriteFailureSkipsDate() {
	suite.expectQuotes()
	suite.store.failOn = "UpdateTransactionValuations"

	report, err := suite.newService().RunBackfill(context.Background(), 0)

	suite.Require().NoError(err)
	suite.Equal(0, report.Updated)
	suite.ElementsMatch([]civil.Date{date("2024-03-01"), date("2024-03-02"), date("2024-03-03")}, report.SkippedDates)
}

func (suite *BackfillServiceTestSuite) TestRun_NothingToDo() {
	store := newMemLedger()
	svc := services.NewBackfillService(store, suite.rates, services.WithDateDelay(0))

	report, err := svc.RunBackfill(context.Background(), 0)

	suite.Require().NoError(err)
	suite.Equal(0, report.Scanned)
	suite.NotNil(report.SkippedDates)
	suite.rates.AssertNotCalled(suite.T(), "ResolveQuote", mock.Anything, mock.Anything)
}
