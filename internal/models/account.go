package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditFields holds standard audit columns.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
}

// Account mirrors a row of the accounts table.
type Account struct {
	AccountID string          `db:"account_id"`
	OwnerID   string          `db:"owner_id"`
	Name      string          `db:"name"`
	Currency  string          `db:"currency"`
	Balance   decimal.Decimal `db:"balance"`
	AuditFields
}

// Category mirrors a row of the categories table.
type Category struct {
	CategoryID string `db:"category_id"`
	OwnerID    string `db:"owner_id"`
	Name       string `db:"name"`
	AuditFields
}
