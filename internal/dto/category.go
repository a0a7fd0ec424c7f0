package dto

import (
	"time"

	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
)

// CreateCategoryRequest defines the data needed to create a category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CategoryResponse defines the data returned for a category.
type CategoryResponse struct {
	CategoryID   string    `json:"categoryID"`
	Name         string    `json:"name"`
	IsAdjustment bool      `json:"isAdjustment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToCategoryResponse converts a domain.Category to its DTO.
func ToCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		CategoryID:   c.CategoryID,
		Name:         c.Name,
		IsAdjustment: c.IsAdjustment(),
		CreatedAt:    c.CreatedAt,
	}
}

// ListCategoriesResponse wraps the list of categories.
type ListCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// ToListCategoriesResponse converts categories to their DTO.
func ToListCategoriesResponse(categories []domain.Category) ListCategoriesResponse {
	res := ListCategoriesResponse{Categories: make([]CategoryResponse, len(categories))}
	for i := range categories {
		res.Categories[i] = ToCategoryResponse(&categories[i])
	}
	return res
}
