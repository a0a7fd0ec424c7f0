package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/SscSPs/multicurrency_ledger/internal/handlers"
	"github.com/SscSPs/multicurrency_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LedgerHandlersTestSuite struct {
	suite.Suite
	router         *gin.Engine
	jwtSecret      string
	userID         string
	mockAccounts   *MockAccountService
	mockAdjust     *MockAdjustmentService
	mockLedger     *MockLedgerService
	mockRates      *MockRateResolver
	mockConversion *MockConversionService
	mockBackfill   *MockBackfillService
	mockStatistics *MockStatisticsService
}

func TestLedgerHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlersTestSuite))
}

// generateTestToken creates a signed JWT for userID.
func (suite *LedgerHandlersTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "ledger-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *LedgerHandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = "user-1"

	suite.mockAccounts = new(MockAccountService)
	suite.mockAdjust = new(MockAdjustmentService)
	suite.mockLedger = new(MockLedgerService)
	suite.mockRates = new(MockRateResolver)
	suite.mockConversion = new(MockConversionService)
	suite.mockBackfill = new(MockBackfillService)
	suite.mockStatistics = new(MockStatisticsService)

	v1 := suite.router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(suite.jwtSecret))
	handlers.RegisterAccountRoutes(v1, suite.mockAccounts, suite.mockAdjust, suite.mockLedger)
	handlers.RegisterTransactionRoutes(v1, suite.mockLedger)
	handlers.RegisterRateRoutes(v1, suite.mockRates, suite.mockConversion, time.UTC)
	handlers.RegisterBackfillRoutes(v1, suite.mockBackfill)
	handlers.RegisterStatisticsRoutes(v1, suite.mockStatistics)
}

func (suite *LedgerHandlersTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *LedgerHandlersTestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (suite *LedgerHandlersTestSuite) TestMissingToken_IsUnauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockAccounts.AssertNotCalled(suite.T(), "ListAccounts", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlersTestSuite) TestCreateAccount_Success() {
	account := &domain.Account{AccountID: "acc-1", OwnerID: suite.userID, Name: "Wallet", Currency: domain.VES, Balance: decimal.RequireFromString("10.5")}
	suite.mockAccounts.On("CreateAccount", mock.Anything, suite.userID, mock.AnythingOfType("dto.CreateAccountRequest")).Return(account, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", map[string]any{"name": "Wallet", "currency": "VES", "openingBalance": "10.50"})

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.AccountResponse
	suite.decode(w, &res)
	suite.Equal("acc-1", res.AccountID)
	suite.Equal(domain.VES, res.Currency)
	suite.Equal("10.5", res.Balance.String())
	suite.mockAccounts.AssertExpectations(suite.T())
}

func (suite *LedgerHandlersTestSuite) TestCreateAccount_BadCurrency() {
	w := suite.do(http.MethodPost, "/api/v1/accounts", map[string]any{"name": "Wallet", "currency": "GBP"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccounts.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlersTestSuite) TestGetAccount_NotFound() {
	suite.mockAccounts.On("GetAccountByID", mock.Anything, suite.userID, "acc-x").Return(nil, apperrors.NewNotFoundError("account acc-x not found")).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-x", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *LedgerHandlersTestSuite) TestAdjustBalance_Success() {
	txn := &domain.Transaction{TransactionID: "txn-1", AccountID: "acc-1", Amount: decimal.RequireFromString("25"), Type: domain.Income, Currency: domain.USD, Date: civil.Date{Year: 2024, Month: 3, Day: 2}}
	result := &domain.AdjustmentResult{
		Account:     domain.Account{AccountID: "acc-1", Currency: domain.USD, Balance: decimal.RequireFromString("100")},
		Transaction: txn,
	}
	suite.mockAdjust.On("AdjustBalance", mock.Anything, suite.userID, "acc-1", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(100))
	})).Return(result, nil).Once()

	w := suite.do(http.MethodPut, "/api/v1/accounts/acc-1/balance", map[string]any{"balance": 100})

	suite.Equal(http.StatusOK, w.Code)
	var res dto.AdjustBalanceResponse
	suite.decode(w, &res)
	suite.Equal("100", res.Account.Balance.String())
	suite.Require().NotNil(res.Transaction)
	suite.Equal("txn-1", res.Transaction.TransactionID)
	suite.Equal("2024-03-02", res.Transaction.Date)
	suite.mockAdjust.AssertExpectations(suite.T())
}

func (suite *LedgerHandlersTestSuite) TestAdjustBalance_MissingBalance() {
	w := suite.do(http.MethodPut, "/api/v1/accounts/acc-1/balance", map[string]any{})

	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *LedgerHandlersTestSuite) TestCreateTransaction_Success() {
	result := &domain.LedgerWriteResult{
		Kind:        domain.WriteCreate,
		Transaction: domain.Transaction{TransactionID: "txn-1", AccountID: "acc-1", Amount: decimal.RequireFromString("40"), Type: domain.Expense, Currency: domain.USD},
		Accounts:    []domain.Account{{AccountID: "acc-1", Currency: domain.USD, Balance: decimal.RequireFromString("60")}},
	}
	suite.mockLedger.On("CreateTransaction", mock.Anything, suite.userID, mock.MatchedBy(func(req dto.TransactionWriteRequest) bool {
		return req.AccountID == "acc-1" && req.Amount != nil && req.Amount.Equal(decimal.NewFromInt(40)) && req.Type == "expense"
	})).Return(result, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/transactions", map[string]any{
		"accountID": "acc-1", "categoryID": "cat-1", "amount": "40.00", "type": "expense",
	})

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.LedgerWriteResponse
	suite.decode(w, &res)
	suite.Equal(domain.WriteCreate, res.Kind)
	suite.Require().Len(res.Accounts, 1)
	suite.Equal("60", res.Accounts[0].Balance.String())
	suite.mockLedger.AssertExpectations(suite.T())
}

func (suite *LedgerHandlersTestSuite) TestCreateTransaction_ErrorMapping() {
	body := map[string]any{"accountID": "acc-1", "categoryID": "cat-1", "amount": "1", "type": "income"}

	tests := []struct {
		name   string
		err    error
		status int
		hidden bool
	}{
		{name: "validation", err: apperrors.NewValidationError("amount must not be negative"), status: http.StatusBadRequest},
		{name: "not found", err: apperrors.NewNotFoundError("account acc-1 not found"), status: http.StatusNotFound},
		{name: "conflict", err: apperrors.ErrConcurrencyConflict, status: http.StatusConflict},
		{name: "unexpected", err: errors.New("connection reset by peer"), status: http.StatusInternalServerError, hidden: true},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.mockLedger.On("CreateTransaction", mock.Anything, suite.userID, mock.Anything).Return(nil, tt.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/transactions", body)

			suite.Equal(tt.status, w.Code)
			var res map[string]string
			suite.decode(w, &res)
			if tt.hidden {
				suite.NotContains(res["error"], "connection reset")
			} else {
				suite.Equal(tt.err.Error(), res["error"])
			}
		})
	}
}

func (suite *LedgerHandlersTestSuite) TestCreateTransaction_InvalidBody() {
	w := suite.do(http.MethodPost, "/api/v1/transactions", map[string]any{"accountID": "acc-1", "type": "gift"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockLedger.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlersTestSuite) TestDeleteTransaction_Success() {
	result := &domain.LedgerWriteResult{
		Kind:        domain.WriteDelete,
		Transaction: domain.Transaction{TransactionID: "txn-1"},
		Accounts:    []domain.Account{{AccountID: "acc-1", Balance: decimal.RequireFromString("90")}},
	}
	suite.mockLedger.On("DeleteTransaction", mock.Anything, suite.userID, "txn-1").Return(result, nil).Once()

	w := suite.do(http.MethodDelete, "/api/v1/transactions/txn-1", nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.LedgerWriteResponse
	suite.decode(w, &res)
	suite.Equal(domain.WriteDelete, res.Kind)
	suite.Equal("90", res.Accounts[0].Balance.String())
}

func (suite *LedgerHandlersTestSuite) TestListTransactions_PassesParams() {
	token := "abc"
	page := &dto.ListTransactionsResponse{Transactions: []dto.TransactionResponse{{TransactionID: "txn-1", ValuationEstimated: true}}, NextToken: &token}
	suite.mockLedger.On("ListTransactionsByAccount", mock.Anything, suite.userID, "acc-1", dto.ListTransactionsParams{Limit: 5, NextToken: "xyz"}).Return(page, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/accounts/acc-1/transactions?limit=5&nextToken=xyz", nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.ListTransactionsResponse
	suite.decode(w, &res)
	suite.Require().Len(res.Transactions, 1)
	suite.True(res.Transactions[0].ValuationEstimated)
	suite.Require().NotNil(res.NextToken)
	suite.Equal("abc", *res.NextToken)
}

func (suite *LedgerHandlersTestSuite) TestCurrentQuote() {
	q := &domain.ExchangeQuote{
		Date:       civil.Date{Year: 2024, Month: 3, Day: 2},
		SourceDate: civil.Date{Year: 2024, Month: 3, Day: 2},
		VESPerUSD:  decimal.RequireFromString("36.25"),
		VESPerEUR:  decimal.RequireFromString("39.15"),
	}
	suite.mockRates.On("CurrentQuote", mock.Anything, true).Return(q, nil).Once()
	suite.mockRates.On("CurrentQuote", mock.Anything, false).Return(nil, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/current?refresh=true", nil)
	suite.Equal(http.StatusOK, w.Code)
	var res dto.ExchangeQuoteResponse
	suite.decode(w, &res)
	suite.Equal("36.25", res.VESPerUSD.String())
	suite.Require().NotNil(res.USDPerEUR)
	suite.Equal("1.08", res.USDPerEUR.String())

	w = suite.do(http.MethodGet, "/api/v1/rates/current", nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockRates.AssertExpectations(suite.T())
}

func (suite *LedgerHandlersTestSuite) TestQuoteByDate() {
	saturday := civil.Date{Year: 2024, Month: 3, Day: 2}
	q := &domain.ExchangeQuote{Date: saturday, SourceDate: saturday.AddDays(-1), VESPerUSD: decimal.RequireFromString("36.25")}
	suite.mockRates.On("ResolveQuote", mock.Anything, saturday).Return(q, nil).Once()
	suite.mockRates.On("ResolveQuote", mock.Anything, civil.Date{Year: 1990, Month: 1, Day: 1}).Return(nil, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/rates/2024-03-02", nil)
	suite.Equal(http.StatusOK, w.Code)
	var res dto.ExchangeQuoteResponse
	suite.decode(w, &res)
	suite.Equal("2024-03-02", res.Date)
	suite.Equal("2024-03-01", res.SourceDate)
	suite.Nil(res.USDPerEUR)

	w = suite.do(http.MethodGet, "/api/v1/rates/1990-01-01", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/rates/yesterday", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *LedgerHandlersTestSuite) TestConvertToUSD() {
	day := civil.Date{Year: 2024, Month: 3, Day: 1}
	usd := decimal.RequireFromString("2.7586206896551724")
	suite.mockConversion.On("ResolveUSDAmount", mock.Anything, mock.Anything, domain.VES, day).Return(&usd, nil).Once()
	suite.mockConversion.On("ResolveUSDAmount", mock.Anything, mock.Anything, domain.EUR, day).Return(nil, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/conversions/usd?amount=100&currency=VES&date=2024-03-01", nil)
	suite.Equal(http.StatusOK, w.Code)
	var res dto.ConversionResponse
	suite.decode(w, &res)
	suite.True(res.Available)
	suite.Require().NotNil(res.AmountUSD)
	suite.True(usd.Equal(*res.AmountUSD))

	w = suite.do(http.MethodGet, "/api/v1/conversions/usd?amount=100&currency=EUR&date=2024-03-01", nil)
	suite.Equal(http.StatusOK, w.Code)
	var missing dto.ConversionResponse
	suite.decode(w, &missing)
	suite.False(missing.Available)
	suite.Nil(missing.AmountUSD)

	w = suite.do(http.MethodGet, "/api/v1/conversions/usd?amount=ten&currency=VES", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	w = suite.do(http.MethodGet, "/api/v1/conversions/usd?amount=10&currency=GBP", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *LedgerHandlersTestSuite) TestBackfill() {
	report := &domain.BackfillReport{Scanned: 4, Updated: 3, SkippedDates: []civil.Date{{Year: 2024, Month: 3, Day: 3}}}
	suite.mockBackfill.On("RunBackfill", mock.Anything, 0).Return(report, nil).Once()
	suite.mockBackfill.On("RunBackfill", mock.Anything, 5).Return(&domain.BackfillReport{SkippedDates: []civil.Date{}}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/maintenance/backfill-valuations", nil)
	suite.Equal(http.StatusOK, w.Code)
	var res dto.BackfillResponse
	suite.decode(w, &res)
	suite.Equal(3, res.Updated)
	suite.Equal([]string{"2024-03-03"}, res.SkippedDates)

	w = suite.do(http.MethodPost, "/api/v1/maintenance/backfill-valuations", map[string]any{"limit": 5})
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/maintenance/backfill-valuations", map[string]any{"limit": -1})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockBackfill.AssertExpectations(suite.T())
}

func (suite *LedgerHandlersTestSuite) TestCategoryStatistics() {
	from := civil.Date{Year: 2024, Month: 3, Day: 1}
	to := civil.Date{Year: 2024, Month: 3, Day: 31}
	stats := &domain.CategoryStatistics{
		From: from, To: to,
		Categories: []domain.CategoryTotal{{CategoryID: "cat-1", CategoryName: "food", ExpenseUSD: decimal.RequireFromString("42.755"), Count: 2}},
		ExpenseUSD: decimal.RequireFromString("42.755"),
		Unvalued:   1,
	}
	suite.mockStatistics.On("CategoryStatistics", mock.Anything, suite.userID, from, to).Return(stats, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/statistics/categories?from=2024-03-01&to=2024-03-31", nil)
	suite.Equal(http.StatusOK, w.Code)
	var res dto.CategoryStatisticsResponse
	suite.decode(w, &res)
	suite.Equal("42.76", res.ExpenseUSD.String())
	suite.Equal(1, res.Unvalued)

	w = suite.do(http.MethodGet, "/api/v1/statistics/categories?from=2024-03-01", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}
