package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/apperrors"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/multicurrency_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/multicurrency_ledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

const adjustmentDescription = "Balance adjustment"

type balanceAdjustmentService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	categories  portssvc.CategorySvcFacade
	ledger      portssvc.BalanceWriterSvc
}

// NewBalanceAdjustmentService creates the service that turns balance edits into transactions.
func NewBalanceAdjustmentService(
	accountRepo portsrepo.AccountReader,
	categories portssvc.CategorySvcFacade,
	ledger portssvc.BalanceWriterSvc,
	now func() time.Time,
	loc *time.Location,
) portssvc.BalanceAdjustmentSvc {
	s := &balanceAdjustmentService{
		BaseService: newBaseService(),
		accountRepo: accountRepo,
		categories:  categories,
		ledger:      ledger,
	}
	s.SetClock(now, loc)
	return s
}

var _ portssvc.BalanceAdjustmentSvc = (*balanceAdjustmentService)(nil)

func (s *balanceAdjustmentService) AdjustBalance(ctx context.Context, userID string, accountID string, nextBalance decimal.Decimal) (*domain.AdjustmentResult, error) {
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

	adj := domain.BalanceAdjustment{
		AccountID:   account.AccountID,
		Target:      nextBalance,
		Date:        s.Today(),
		Description: adjustmentDescription,
	}

	// The unlocked balance only picks which category to prepare. The ledger
	// recomputes the delta under the account lock.
	expected := domain.RoundMoney(nextBalance.Sub(account.Balance))
	if !expected.IsZero() {
		if err := s.prepareCategory(ctx, userID, &adj, expected.IsPositive()); err != nil {
			return nil, err
		}
	}

	res, err := s.ledger.WriteBalanceAdjustment(ctx, userID, adj)
	if errors.Is(err, ErrAdjustmentCategoryMissing) {
		// A concurrent write moved the balance across the target.
		for _, increase := range []bool{true, false} {
			if err := s.prepareCategory(ctx, userID, &adj, increase); err != nil {
				return nil, err
			}
		}
		res, err = s.ledger.WriteBalanceAdjustment(ctx, userID, adj)
	}
	if err != nil {
		return nil, err
	}

	if res.Transaction != nil {
		s.LogInfo(ctx, "Balance adjusted",
			slog.String("account_id", accountID),
			slog.String("delta", res.Transaction.SignedDelta().String()),
			slog.String("balance", res.Account.Balance.String()))
	}
	return res, nil
}

func (s *balanceAdjustmentService) prepareCategory(ctx context.Context, userID string, adj *domain.BalanceAdjustment, increase bool) error {
	category, err := s.categories.FindOrCreateCategory(ctx, userID, domain.AdjustmentCategoryName(increase))
	if err != nil {
		s.LogError(ctx, err, "Failed to resolve adjustment category", slog.String("account_id", adj.AccountID))
		return err
	}
	if increase {
		adj.IncreaseCategoryID = category.CategoryID
	} else {
		adj.DecreaseCategoryID = category.CategoryID
	}
	return nil
}
