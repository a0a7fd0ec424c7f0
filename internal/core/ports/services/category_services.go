package services

import (
	"context"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/SscSPs/multicurrency_ledger/internal/dto"
)

// CategorySvcFacade defines category operations.
type CategorySvcFacade interface {
	CreateCategory(ctx context.Context, userID string, req dto.CreateCategoryRequest) (*domain.Category, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)

	// FindOrCreateCategory returns the owner's category with the given name,
	// creating it on first use.
	FindOrCreateCategory(ctx context.Context, userID string, name string) (*domain.Category, error)
}
