package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	adjustments portssvc.BalanceAdjustmentSvc
}

// AccountServiceOption is a functional option for configuring the account service
type AccountServiceOption func(*accountService)

// WithBalanceAdjustments lets CreateAccount record an opening balance.
func WithBalanceAdjustments(svc portssvc.BalanceAdjustmentSvc) AccountServiceOption {
	return func(s *accountService) {
		s.adjustments = svc
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...AccountServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{BaseService: newBaseService(), accountRepo: repo}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, userID string, req dto.CreateAccountRequest) (*domain.Account, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	currency, err := domain.ParseCurrency(req.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	opening := decimal.Zero
	if req.OpeningBalance != nil {
		opening = domain.RoundMoney(*req.OpeningBalance)
	}
	if !opening.IsZero() && s.adjustments == nil {
		return nil, apperrors.NewValidationError("opening balance is not supported")
	}

	now := s.Now()
	account := domain.Account{
		AccountID: uuid.NewString(),
		OwnerID:   userID,
		Name:      strings.TrimSpace(req.Name),
		Currency:  currency,
		Balance:   decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account", slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("currency", currency.String()))

	if opening.IsZero() {
		return &account, nil
	}
	res, err := s.adjustments.AdjustBalance(ctx, userID, account.AccountID, opening)
	if err != nil {
		s.LogError(ctx, err, "Failed to record opening balance", slog.String("account_id", account.AccountID))
		return nil, err
	}
	return &res.Account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, userID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
		}
		s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	if !account.OwnedBy(userID) {
		// Do not reveal accounts of other owners.
		return nil, apperrors.NewNotFoundError("account " + accountID + " not found")
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, userID string, params dto.ListAccountsParams) ([]domain.Account, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, userID, limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
