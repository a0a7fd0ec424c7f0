package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var errInjected = errors.New("injected failure")

// memLedger is an in-memory stand-in for the Postgres repositories. RunInTx
// holds the store mutex for the whole unit of work and works on copies, so a
// failing fn leaves no trace.
type memLedger struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	categories   map[string]domain.Category
	transactions map[string]domain.Transaction
	deferrals    map[civil.Date]time.Time
	failOn       string
	txCount      int

	// afterValuationSelect runs once FindTransactionsMissingValuation has released the store.
	afterValuationSelect func()
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts:     map[string]domain.Account{},
		categories:   map[string]domain.Category{},
		transactions: map[string]domain.Transaction{},
		deferrals:    map[civil.Date]time.Time{},
	}
}

var (
	_ portsrepo.LedgerStore                 = (*memLedger)(nil)
	_ portsrepo.AccountRepositoryFacade     = (*memLedger)(nil)
	_ portsrepo.CategoryRepositoryFacade    = (*memLedger)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*memLedger)(nil)
)

func (m *memLedger) seedAccount(id, owner string, currency domain.Currency, balance string) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := domain.Account{AccountID: id, OwnerID: owner, Name: id, Currency: currency, Balance: decimal.RequireFromString(balance)}
	m.accounts[id] = a
	return a
}

func (m *memLedger) seedCategory(id, owner, name string) domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.Category{CategoryID: id, OwnerID: owner, Name: name}
	m.categories[id] = c
	return c
}

func (m *memLedger) seedTransaction(t domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.TransactionID] = t
}

func (m *memLedger) balance(accountID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountID].Balance
}

func (m *memLedger) transaction(id string) (domain.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	return t, ok
}

// sumOfDeltas recomputes an account balance from its transactions.
func (m *memLedger) sumOfDeltas(accountID string) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, t := range m.transactions {
		if t.AccountID == accountID {
			sum = sum.Add(t.SignedDelta())
		}
	}
	return sum
}

// --- LedgerStore ---

func (m *memLedger) RunInTx(ctx context.Context, fn func(ctx context.Context, tx portsrepo.LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCount++

	tx := &memTx{
		parent:       m,
		accounts:     make(map[string]domain.Account, len(m.accounts)),
		transactions: make(map[string]domain.Transaction, len(m.transactions)),
	}
	for k, v := range m.accounts {
		tx.accounts[k] = v
	}
	for k, v := range m.transactions {
		tx.transactions[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.accounts = tx.accounts
	m.transactions = tx.transactions
	return nil
}

type memTx struct {
	parent       *memLedger
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
}

func (t *memTx) fail(op string) error {
	if t.parent.failOn == op {
		return errInjected
	}
	return nil
}

func (t *memTx) LockTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if err := t.fail("LockTransaction"); err != nil {
		return nil, err
	}
	txn, ok := t.transactions[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction not found: " + transactionID)
	}
	return &txn, nil
}

func (t *memTx) LockAccounts(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if err := t.fail("LockAccounts"); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		a, ok := t.accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		out[id] = a
	}
	return out, nil
}

func (t *memTx) SetAccountBalance(ctx context.Context, accountID string, balance decimal.Decimal, userID string, now time.Time) error {
	if err := t.fail("SetAccountBalance"); err != nil {
		return err
	}
	a, ok := t.accounts[accountID]
	if !ok {
		return apperrors.NewNotFoundError("account not found: " + accountID)
	}
	a.Balance = balance
	a.LastUpdatedAt, a.LastUpdatedBy = now, userID
	t.accounts[accountID] = a
	return nil
}

func (t *memTx) InsertTransaction(ctx context.Context, transaction domain.Transaction) error {
	if err := t.fail("InsertTransaction"); err != nil {
		return err
	}
	if _, exists := t.transactions[transaction.TransactionID]; exists {
		return apperrors.ErrDuplicate
	}
	t.transactions[transaction.TransactionID] = transaction
	return nil
}

func (t *memTx) UpdateTransaction(ctx context.Context, transaction domain.Transaction) error {
	if err := t.fail("UpdateTransaction"); err != nil {
		return err
	}
	if _, exists := t.transactions[transaction.TransactionID]; !exists {
		return apperrors.NewNotFoundError("transaction not found: " + transaction.TransactionID)
	}
	t.transactions[transaction.TransactionID] = transaction
	return nil
}

func (t *memTx) DeleteTransaction(ctx context.Context, transactionID string) error {
	if err := t.fail("DeleteTransaction"); err != nil {
		return err
	}
	if _, exists := t.transactions[transactionID]; !exists {
		return apperrors.NewNotFoundError("transaction not found: " + transactionID)
	}
	delete(t.transactions, transactionID)
	return nil
}

// --- Accounts ---

func (m *memLedger) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account not found: " + accountID)
	}
	return &a, nil
}

func (m *memLedger) ListAccounts(ctx context.Context, ownerID string, limit int, offset int) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	if offset >= len(out) {
		return []domain.Account{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLedger) SaveAccount(ctx context.Context, account domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[account.AccountID]; exists {
		return apperrors.ErrDuplicate
	}
	m.accounts[account.AccountID] = account
	return nil
}

// --- Categories ---

func (m *memLedger) FindCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok {
		return nil, apperrors.NewNotFoundError("category not found: " + categoryID)
	}
	return &c, nil
}

func (m *memLedger) FindCategoryByName(ctx context.Context, ownerID string, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == ownerID && c.Name == name {
			c := c
			return &c, nil
		}
	}
	return nil, apperrors.NewNotFoundError("category not found: " + name)
}

func (m *memLedger) ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Category{}
	for _, c := range m.categories {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memLedger) SaveCategory(ctx context.Context, category domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OwnerID == category.OwnerID && c.Name == category.Name {
			return fmt.Errorf("%w: category %q", apperrors.ErrDuplicate, category.Name)
		}
	}
	m.categories[category.CategoryID] = category
	return nil
}

// --- Transactions ---

func (m *memLedger) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[transactionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("transaction not found: " + transactionID)
	}
	return &t, nil
}

func newestFirst(a, b domain.Transaction) bool {
	if a.Date != b.Date {
		return a.Date.After(b.Date)
	}
	return a.TransactionID > b.TransactionID
}

func (m *memLedger) ListTransactionsByAccount(ctx context.Context, accountID string, limit int, cursor *portsrepo.TransactionCursor) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.transactions {
		if t.AccountID != accountID {
			continue
		}
		if cursor != nil && !newestFirst(domain.Transaction{Date: cursor.Date, TransactionID: cursor.TransactionID}, t) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i], out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memLedger) ListTransactionsByOwner(ctx context.Context, ownerID string, from, to civil.Date) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.transactions {
		if t.OwnerID == ownerID && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[j], out[i]) })
	return out, nil
}

func (m *memLedger) FindTransactionsMissingValuation(ctx context.Context, asOf time.Time, limit int) ([]domain.Transaction, error) {
	out := m.selectMissingValuation(asOf, limit)
	if m.afterValuationSelect != nil {
		m.afterValuationSelect()
	}
	return out, nil
}

func (m *memLedger) selectMissingValuation(asOf time.Time, limit int) []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.transactions {
		if until, ok := m.deferrals[t.Date]; ok && until.After(asOf) {
			continue
		}
		if !t.HasValuation() {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[j], out[i]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memLedger) UpdateTransactionValuations(ctx context.Context, valuations []domain.TransactionValuation) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "UpdateTransactionValuations" {
		return 0, errInjected
	}
	n := 0
	for _, v := range valuations {
		t, ok := m.transactions[v.TransactionID]
		if !ok || t.HasValuation() || !v.Matches(t) {
			continue
		}
		valuation := v.Valuation
		t.SetValuation(&valuation)
		m.transactions[t.TransactionID] = t
		n++
	}
	return n, nil
}

func (m *memLedger) DeferValuationDates(ctx context.Context, dates []civil.Date, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range dates {
		m.deferrals[d] = until
	}
	return nil
}

func (m *memLedger) deferredUntil(d civil.Date) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.deferrals[d]
	return until, ok
}

// --- Rate cache ---

// memRateCache is a map-backed RateCacheFacade.
type memRateCache struct {
	mu      sync.Mutex
	dated   map[civil.Date]domain.ExchangeQuote
	current *domain.ExchangeQuote
	findErr error
}

func newMemRateCache() *memRateCache {
	return &memRateCache{dated: map[civil.Date]domain.ExchangeQuote{}}
}

var _ portsrepo.RateCacheFacade = (*memRateCache)(nil)

func (c *memRateCache) FindQuoteByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findErr != nil {
		return nil, c.findErr
	}
	q, ok := c.dated[date]
	if !ok {
		return nil, apperrors.NewNotFoundError("no cached quote for " + date.String())
	}
	return &q, nil
}

func (c *memRateCache) SaveQuoteIfAbsent(ctx context.Context, quote domain.ExchangeQuote) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.dated[quote.Date]; exists {
		return false, nil
	}
	c.dated[quote.Date] = quote
	return true, nil
}

func (c *memRateCache) FindCurrentQuote(ctx context.Context) (*domain.ExchangeQuote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, apperrors.NewNotFoundError("no current quote stored")
	}
	q := *c.current
	return &q, nil
}

func (c *memRateCache) SaveCurrentQuote(ctx context.Context, quote domain.ExchangeQuote) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &quote
	return nil
}

func (c *memRateCache) has(date civil.Date) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dated[date]
	return ok
}

// --- Mock RateSource ---

type MockRateSource struct {
	mock.Mock
}

var _ portssvc.RateSource = (*MockRateSource)(nil)

func (m *MockRateSource) Name() string { return "mock" }

func (m *MockRateSource) FetchCurrent(ctx context.Context) (*domain.ExchangeQuote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeQuote), args.Error(1)
}

func (m *MockRateSource) FetchByDate(ctx context.Context, date civil.Date) (*domain.ExchangeQuote, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeQuote), args.Error(1)
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

// --- helpers ---

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func quote(d string, vesPerUSD, vesPerEUR string) *domain.ExchangeQuote {
	return &domain.ExchangeQuote{
		Date:       date(d),
		VESPerUSD:  dec(vesPerUSD),
		VESPerEUR:  dec(vesPerEUR),
		SourceDate: date(d),
		FetchedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
