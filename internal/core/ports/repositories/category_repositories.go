package repositories

import (
	"context"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
)

// CategoryReader defines read operations for categories
type CategoryReader interface {
	// FindCategoryByID retrieves a category by its identifier.
	FindCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error)

	// FindCategoryByName retrieves an owner's category by exact name.
	FindCategoryByName(ctx context.Context, ownerID string, name string) (*domain.Category, error)

	// ListCategories lists all categories of an owner ordered by name.
	ListCategories(ctx context.Context, ownerID string) ([]domain.Category, error)
}

// CategoryWriter defines write operations for categories
type CategoryWriter interface {
	// SaveCategory persists a new category. A name already used by the owner
	// fails with ErrDuplicate.
	SaveCategory(ctx context.Context, category domain.Category) error
}

// CategoryRepositoryFacade combines all category-related repository interfaces
type CategoryRepositoryFacade interface {
	CategoryReader
	CategoryWriter
}
