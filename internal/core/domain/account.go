package domain

import (
	"github.com/shopspring/decimal"
)

// Account holds a balance in a single currency for one owner.
// Balance is only ever changed through the ledger writer.
type Account struct {
	AccountID   string          `json:"accountID"`
	OwnerID     string          `json:"ownerID"` // UserID of the owning user
	Name        string          `json:"name"`
	Currency    Currency        `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	AuditFields                 // Embed CreatedAt, CreatedBy, etc.
}

// OwnedBy reports whether the account belongs to userID.
func (a Account) OwnedBy(userID string) bool {
	return a.OwnerID == userID
}
