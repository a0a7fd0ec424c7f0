package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/SscSPs/multicurrency_ledger/internal/utils/pagination"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionDataRequired = errors.New("transaction data is required")
	ErrNegativeAmount          = errors.New("amount must not be negative")
	ErrUnknownWriteKind        = errors.New("unknown ledger write kind")
	ErrAmountPrecision         = errors.New("amount must not have more than two decimal places")

	// ErrAdjustmentCategoryMissing means the locked balance called for a
	// direction whose category was not supplied.
	ErrAdjustmentCategoryMissing = errors.New("adjustment category missing for balance direction")
)

// requestValidator checks DTOs with the same `binding` tags gin uses, so
// writes that do not come through HTTP get the same checks.
var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}

func validateRequest(req any) error {
	if err := requestValidator.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed on '%s'", apperrors.ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return nil
}

// ledgerService owns the account balance invariant.
type ledgerService struct {
	BaseService
	store            portsrepo.LedgerStore
	accountRepo      portsrepo.AccountReader
	categoryRepo     portsrepo.CategoryReader
	transactionRepo  portsrepo.TransactionReader
	rates            portssvc.RateResolverSvc
	conversion       portssvc.ConversionSvc
	observers        []portssvc.LedgerObserver
	valuationOnWrite bool
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithRateResolver lets writes snapshot a USD valuation for non-USD amounts.
func WithRateResolver(r portssvc.RateResolverSvc) LedgerServiceOption {
	return func(s *ledgerService) {
		s.rates = r
	}
}

// WithConversionService values unvalued rows when listing.
func WithConversionService(c portssvc.ConversionSvc) LedgerServiceOption {
	return func(s *ledgerService) {
		s.conversion = c
	}
}

// WithLedgerObserver registers an observer notified after every committed write.
func WithLedgerObserver(o portssvc.LedgerObserver) LedgerServiceOption {
	return func(s *ledgerService) {
		s.observers = append(s.observers, o)
	}
}

// WithValuationOnWrite toggles rate resolution for non-USD writes.
func WithValuationOnWrite(enabled bool) LedgerServiceOption {
	return func(s *ledgerService) {
		s.valuationOnWrite = enabled
	}
}

// WithLedgerClock overrides the clock and time zone used for "today".
func WithLedgerClock(now func() time.Time, loc *time.Location) LedgerServiceOption {
	return func(s *ledgerService) {
		s.SetClock(now, loc)
	}
}

// NewLedgerService creates the transaction writer and reader.
func NewLedgerService(
	store portsrepo.LedgerStore,
	accountRepo portsrepo.AccountReader,
	categoryRepo portsrepo.CategoryReader,
	transactionRepo portsrepo.TransactionReader,
	options ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		BaseService:      newBaseService(),
		store:            store,
		accountRepo:      accountRepo,
		categoryRepo:     categoryRepo,
		transactionRepo:  transactionRepo,
		valuationOnWrite: true,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// transactionFields is a validated write request.
type transactionFields struct {
	accountID   string
	categoryID  string
	description string
	date        civil.Date
	amount      decimal.Decimal
	typ         domain.TransactionType
	currency    domain.Currency // empty means the account currency
}

func (s *ledgerService) parseWriteRequest(req *dto.TransactionWriteRequest) (*transactionFields, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrTransactionDataRequired)
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrNegativeAmount)
	}
	if !req.Amount.Equal(domain.RoundMoney(*req.Amount)) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrAmountPrecision)
	}

	typ, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	f := &transactionFields{
		accountID:   req.AccountID,
		categoryID:  req.CategoryID,
		description: req.Description,
		date:        s.Today(),
		amount:      domain.RoundMoney(*req.Amount),
		typ:         typ,
	}
	if req.Date != "" {
		if f.date, err = domain.ParseDate(req.Date); err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, req.Date)
		}
	}
	if req.Currency != "" {
		if f.currency, err = domain.ParseCurrency(req.Currency); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	}
	return f, nil
}

// prepareTransaction applies the request fields on top of base, checks the
// referenced account and category, and snapshots a valuation. Rate resolution
// happens here, before any row is locked.
func (s *ledgerService) prepareTransaction(ctx context.Context, userID string, f *transactionFields, base domain.Transaction) (*domain.Transaction, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, f.accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("account " + f.accountID + " not found")
		}
		return nil, fmt.Errorf("failed to load account %s: %w", f.accountID, err)
	}
	if !account.OwnedBy(userID) {
		return nil, apperrors.NewNotFoundError("account " + f.accountID + " not found")
	}

	category, err := s.categoryRepo.FindCategoryByID(ctx, f.categoryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("category " + f.categoryID + " not found")
		}
		return nil, fmt.Errorf("failed to load category %s: %w", f.categoryID, err)
	}
	if category.OwnerID != userID {
		return nil, apperrors.NewNotFoundError("category " + f.categoryID + " not found")
	}

	next := base
	next.AccountID = account.AccountID
	next.CategoryID = category.CategoryID
	next.Description = f.description
	next.Date = f.date
	next.Amount = f.amount
	next.Type = f.typ
	next.Currency = f.currency
	if next.Currency == "" {
		next.Currency = account.Currency
	}

	unchanged := base.HasValuation() && base.Amount.Equal(next.Amount) && base.Currency == next.Currency && base.Date == next.Date
	if !unchanged {
		next.SetValuation(s.valuate(ctx, next.Amount, next.Currency, next.Date))
	}
	return &next, nil
}

// valuate never fails a write: a missing quote leaves the valuation empty for the backfill.
func (s *ledgerService) valuate(ctx context.Context, amount decimal.Decimal, currency domain.Currency, date civil.Date) *domain.Valuation {
	v, _ := domain.ValueInUSD(amount, currency, s.quoteFor(ctx, currency, date))
	return v
}

// quoteFor resolves the quote a write in currency on date is valued with.
// USD needs none.
func (s *ledgerService) quoteFor(ctx context.Context, currency domain.Currency, date civil.Date) *domain.ExchangeQuote {
	if currency == domain.USD || !s.valuationOnWrite || s.rates == nil {
		return nil
	}

	quote, err := s.rates.ResolveQuote(ctx, date)
	if err != nil {
		s.LogWarn(ctx, "Rate resolution failed, storing transaction without valuation",
			slog.String("date", date.String()), slog.String("error", err.Error()))
		return nil
	}
	if quote == nil {
		s.LogWarn(ctx, "No exchange quote available, storing transaction without valuation",
			slog.String("date", date.String()), slog.String("currency", currency.String()))
	}
	return quote
}

// applyDelta is the only way balances change.
func applyDelta(balance, delta decimal.Decimal) decimal.Decimal {
	return domain.RoundMoney(balance.Add(delta))
}

// lockOrder returns the distinct ids sorted, so concurrent writers lock rows in the same order.
func lockOrder(ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *ledgerService) ApplyTransactionWrite(ctx context.Context, userID string, kind domain.WriteKind, transactionID string, req *dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error) {
	switch kind {
	case domain.WriteCreate:
		if req == nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrTransactionDataRequired)
		}
		return s.CreateTransaction(ctx, userID, *req)
	case domain.WriteUpdate:
		if req == nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrTransactionDataRequired)
		}
		return s.UpdateTransaction(ctx, userID, transactionID, *req)
	case domain.WriteDelete:
		return s.DeleteTransaction(ctx, userID, transactionID)
	}
	return nil, fmt.Errorf("%w: %w %q", apperrors.ErrValidation, ErrUnknownWriteKind, kind)
}

func (s *ledgerService) CreateTransaction(ctx context.Context, userID string, req dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error) {
	f, err := s.parseWriteRequest(&req)
	if err != nil {
		s.LogWarn(ctx, "Rejected transaction create", slog.String("error", err.Error()))
		return nil, err
	}

	now := s.Now()
	base := domain.Transaction{
		TransactionID: uuid.NewString(),
		OwnerID:       userID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	next, err := s.prepareTransaction(ctx, userID, f, base)
	if err != nil {
		return nil, err
	}

	var updated []domain.Account
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		accounts, err := tx.LockAccounts(ctx, []string{next.AccountID})
		if err != nil {
			return err
		}
		account := accounts[next.AccountID]
		if !account.OwnedBy(userID) {
			return apperrors.NewNotFoundError("account " + next.AccountID + " not found")
		}

		account.Balance = applyDelta(account.Balance, next.SignedDelta())
		account.LastUpdatedAt, account.LastUpdatedBy = now, userID
		if err := tx.SetAccountBalance(ctx, account.AccountID, account.Balance, userID, now); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, *next); err != nil {
			return err
		}
		updated = []domain.Account{account}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create transaction", slog.String("account_id", next.AccountID))
		return nil, err
	}

	return s.committed(ctx, domain.LedgerWriteResult{Kind: domain.WriteCreate, Transaction: *next, Accounts: updated}), nil
}

func (s *ledgerService) UpdateTransaction(ctx context.Context, userID string, transactionID string, req dto.TransactionWriteRequest) (*domain.LedgerWriteResult, error) {
	f, err := s.parseWriteRequest(&req)
	if err != nil {
		s.LogWarn(ctx, "Rejected transaction update", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		return nil, err
	}

	current, err := s.findOwnedTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	next, err := s.prepareTransaction(ctx, userID, f, *current)
	if err != nil {
		return nil, err
	}
	next.LastUpdatedAt, next.LastUpdatedBy = now, userID

	var updated []domain.Account
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		// The locked row is authoritative; current may be stale by now.
		prev, err := tx.LockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if prev.OwnerID != userID {
			return apperrors.NewNotFoundError("transaction " + transactionID + " not found")
		}
		next.CreatedAt, next.CreatedBy = prev.CreatedAt, prev.CreatedBy

		accounts, err := tx.LockAccounts(ctx, lockOrder(prev.AccountID, next.AccountID))
		if err != nil {
			return err
		}
		for id, account := range accounts {
			if !account.OwnedBy(userID) {
				return apperrors.NewNotFoundError("account " + id + " not found")
			}
		}

		// Revert the previous effect.
		prevAccount := accounts[prev.AccountID]
		prevAccount.Balance = applyDelta(prevAccount.Balance, prev.SignedDelta().Neg())
		prevAccount.LastUpdatedAt, prevAccount.LastUpdatedBy = now, userID
		accounts[prev.AccountID] = prevAccount
		if err := tx.SetAccountBalance(ctx, prevAccount.AccountID, prevAccount.Balance, userID, now); err != nil {
			return err
		}

		if err := tx.UpdateTransaction(ctx, *next); err != nil {
			return err
		}

		// Apply the new effect, possibly on another account.
		nextAccount := accounts[next.AccountID]
		nextAccount.Balance = applyDelta(nextAccount.Balance, next.SignedDelta())
		nextAccount.LastUpdatedAt, nextAccount.LastUpdatedBy = now, userID
		accounts[next.AccountID] = nextAccount
		if err := tx.SetAccountBalance(ctx, nextAccount.AccountID, nextAccount.Balance, userID, now); err != nil {
			return err
		}

		updated = updated[:0]
		for _, id := range lockOrder(prev.AccountID, next.AccountID) {
			updated = append(updated, accounts[id])
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}

	return s.committed(ctx, domain.LedgerWriteResult{Kind: domain.WriteUpdate, Transaction: *next, Accounts: updated}), nil
}

func (s *ledgerService) DeleteTransaction(ctx context.Context, userID string, transactionID string) (*domain.LedgerWriteResult, error) {
	if transactionID == "" {
		return nil, apperrors.NewValidationError("transaction id is required")
	}

	now := s.Now()
	var (
		removed domain.Transaction
		updated []domain.Account
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		prev, err := tx.LockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if prev.OwnerID != userID {
			return apperrors.NewNotFoundError("transaction " + transactionID + " not found")
		}

		accounts, err := tx.LockAccounts(ctx, []string{prev.AccountID})
		if err != nil {
			return err
		}
		account := accounts[prev.AccountID]
		account.Balance = applyDelta(account.Balance, prev.SignedDelta().Neg())
		account.LastUpdatedAt, account.LastUpdatedBy = now, userID
		if err := tx.SetAccountBalance(ctx, account.AccountID, account.Balance, userID, now); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, transactionID); err != nil {
			return err
		}

		removed = *prev
		updated = []domain.Account{account}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to delete transaction", slog.String("transaction_id", transactionID))
		return nil, err
	}

	return s.committed(ctx, domain.LedgerWriteResult{Kind: domain.WriteDelete, Transaction: removed, Accounts: updated}), nil
}

func (s *ledgerService) WriteBalanceAdjustment(ctx context.Context, userID string, adj domain.BalanceAdjustment) (*domain.AdjustmentResult, error) {
	if !adj.Date.IsValid() {
		return nil, apperrors.NewValidationError("invalid adjustment date " + adj.Date.String())
	}
	account, err := s.accountRepo.FindAccountByID(ctx, adj.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("account " + adj.AccountID + " not found")
		}
		return nil, fmt.Errorf("failed to load account %s: %w", adj.AccountID, err)
	}
	if !account.OwnedBy(userID) {
		return nil, apperrors.NewNotFoundError("account " + adj.AccountID + " not found")
	}

	// The amount is only known under the lock; the quote depends on the date alone.
	quote := s.quoteFor(ctx, account.Currency, adj.Date)

	now := s.Now()
	var res domain.AdjustmentResult
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
		accounts, err := tx.LockAccounts(ctx, []string{adj.AccountID})
		if err != nil {
			return err
		}
		locked := accounts[adj.AccountID]
		if !locked.OwnedBy(userID) {
			return apperrors.NewNotFoundError("account " + adj.AccountID + " not found")
		}

		delta := domain.RoundMoney(adj.Target.Sub(locked.Balance))
		res = domain.AdjustmentResult{Account: locked}
		if delta.IsZero() {
			return nil
		}
		categoryID := adj.CategoryFor(delta)
		if categoryID == "" {
			return ErrAdjustmentCategoryMissing
		}

		typ := domain.Expense
		if delta.IsPositive() {
			typ = domain.Income
		}
		txn := domain.Transaction{
			TransactionID: uuid.NewString(),
			OwnerID:       userID,
			AccountID:     locked.AccountID,
			CategoryID:    categoryID,
			Description:   adj.Description,
			Date:          adj.Date,
			Amount:        delta.Abs(),
			Type:          typ,
			Currency:      locked.Currency,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		v, _ := domain.ValueInUSD(txn.Amount, txn.Currency, quote)
		txn.SetValuation(v)

		locked.Balance = applyDelta(locked.Balance, txn.SignedDelta())
		locked.LastUpdatedAt, locked.LastUpdatedBy = now, userID
		if err := tx.SetAccountBalance(ctx, locked.AccountID, locked.Balance, userID, now); err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		res = domain.AdjustmentResult{Account: locked, Transaction: &txn}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrAdjustmentCategoryMissing) {
			s.LogError(ctx, err, "Failed to write balance adjustment", slog.String("account_id", adj.AccountID))
		}
		return nil, err
	}

	if res.Transaction != nil {
		s.committed(ctx, domain.LedgerWriteResult{Kind: domain.WriteCreate, Transaction: *res.Transaction, Accounts: []domain.Account{res.Account}})
	}
	return &res, nil
}

func (s *ledgerService) committed(ctx context.Context, result domain.LedgerWriteResult) *domain.LedgerWriteResult {
	s.LogInfo(ctx, "Ledger write committed",
		slog.String("kind", string(result.Kind)),
		slog.String("transaction_id", result.Transaction.TransactionID),
		slog.Int("accounts_changed", len(result.Accounts)))
	for _, o := range s.observers {
		o.OnLedgerWrite(ctx, result)
	}
	return &result
}

func (s *ledgerService) findOwnedTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	if transactionID == "" {
		return nil, apperrors.NewValidationError("transaction id is required")
	}
	txn, err := s.transactionRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID + " not found")
		}
		s.LogError(ctx, err, "Failed to load transaction", slog.String("transaction_id", transactionID))
		return nil, fmt.Errorf("failed to load transaction %s: %w", transactionID, err)
	}
	if txn.OwnerID != userID {
		return nil, apperrors.NewNotFoundError("transaction " + transactionID + " not found")
	}
	return txn, nil
}

func (s *ledgerService) GetTransactionByID(ctx context.Context, userID string, transactionID string) (*domain.Transaction, error) {
	return s.findOwnedTransaction(ctx, userID, transactionID)
}

func (s *ledgerService) ListTransactionsByAccount(ctx context.Context, userID string, accountID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		return nil, fmt.Errorf("failed to load account %s: %w", accountID, err)
	}
	if !account.OwnedBy(userID) {
		return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	var cursor *portsrepo.TransactionCursor
	if params.NextToken != "" {
		date, id, err := pagination.DecodeTransactionCursor(params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &portsrepo.TransactionCursor{Date: date, TransactionID: id}
	}

	// Fetch one extra row to learn whether another page exists.
	rows, err := s.transactionRepo.ListTransactionsByAccount(ctx, accountID, limit+1, cursor)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}

	res := &dto.ListTransactionsResponse{Transactions: []dto.TransactionResponse{}}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		res.Transactions = append(res.Transactions, s.withEstimatedValuation(ctx, &rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		token := pagination.EncodeTransactionCursor(last.Date, last.TransactionID)
		res.NextToken = &token
	}
	return res, nil
}

// withEstimatedValuation fills AmountUSD for rows the backfill has not reached yet.
// Nothing is persisted.
func (s *ledgerService) withEstimatedValuation(ctx context.Context, txn *domain.Transaction) dto.TransactionResponse {
	out := dto.ToTransactionResponse(txn)
	if txn.HasValuation() || s.conversion == nil {
		return out
	}
	usd, err := s.conversion.ResolveUSDAmount(ctx, txn.Amount, txn.Currency, txn.Date)
	if err != nil || usd == nil {
		return out
	}
	rounded := domain.RoundMoney(*usd)
	out.AmountUSD = &rounded
	out.ValuationEstimated = true
	return out
}
