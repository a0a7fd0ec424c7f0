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
)

var ErrReservedCategoryName = errors.New("category name is reserved for balance adjustments")

type categoryService struct {
	BaseService
	categoryRepo portsrepo.CategoryRepositoryFacade
}

// NewCategoryService creates the category service.
func NewCategoryService(repo portsrepo.CategoryRepositoryFacade) portssvc.CategorySvcFacade {
	return &categoryService{BaseService: newBaseService(), categoryRepo: repo}
}

var _ portssvc.CategorySvcFacade = (*categoryService)(nil)

func (s *categoryService) CreateCategory(ctx context.Context, userID string, req dto.CreateCategoryRequest) (*domain.Category, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name is required")
	}
	if domain.IsAdjustmentCategoryName(name) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrReservedCategoryName)
	}

	category := s.newCategory(userID, name)
	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		s.LogError(ctx, err, "Failed to save category", slog.String("name", name))
		return nil, err
	}
	return &category, nil
}

func (s *categoryService) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListCategories(ctx, userID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) FindOrCreateCategory(ctx context.Context, userID string, name string) (*domain.Category, error) {
	existing, err := s.categoryRepo.FindCategoryByName(ctx, userID, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	category := s.newCategory(userID, name)
	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Another request created it first.
			return s.categoryRepo.FindCategoryByName(ctx, userID, name)
		}
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	s.LogInfo(ctx, "Created category on first use", slog.String("name", name))
	return &category, nil
}

func (s *categoryService) newCategory(userID, name string) domain.Category {
	now := s.Now()
	return domain.Category{
		CategoryID: uuid.NewString(),
		OwnerID:    userID,
		Name:       name,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}
