package domain

import "strings"

// Reserved category names used to record direct balance edits.
const (
	IncreaseAdjustmentCategory = "increase adjustment"
	DecreaseAdjustmentCategory = "decrease adjustment"
)

// Category groups transactions for statistics.
type Category struct {
	CategoryID string `json:"categoryID"`
	OwnerID    string `json:"ownerID"`
	Name       string `json:"name"`
	AuditFields
}

// IsAdjustment reports whether the category is one of the reserved adjustment categories.
func (c Category) IsAdjustment() bool {
	return IsAdjustmentCategoryName(c.Name)
}

// IsAdjustmentCategoryName matches the reserved adjustment names, ignoring case and padding.
func IsAdjustmentCategoryName(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == IncreaseAdjustmentCategory || n == DecreaseAdjustmentCategory
}

// AdjustmentCategoryName returns the reserved category for a balance change direction.
func AdjustmentCategoryName(increase bool) string {
	if increase {
		return IncreaseAdjustmentCategory
	}
	return DecreaseAdjustmentCategory
}
