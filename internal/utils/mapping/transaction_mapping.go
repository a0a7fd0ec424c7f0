package mapping

import (
	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/SscSPs/multicurrency_ledger/internal/models"
	"github.com/shopspring/decimal"
)

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:    d.TransactionID,
		OwnerID:          d.OwnerID,
		AccountID:        d.AccountID,
		CategoryID:       d.CategoryID,
		TransactionDate:  domain.DateToTime(d.Date),
		Description:      d.Description,
		Amount:           d.Amount,
		TransactionType:  string(d.Type),
		Currency:         d.Currency.String(),
		AmountUSD:        toNullDecimal(d.AmountUSD),
		ExchangeRateUsed: toNullDecimal(d.ExchangeRateUsed),
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:    m.TransactionID,
		OwnerID:          m.OwnerID,
		AccountID:        m.AccountID,
		CategoryID:       m.CategoryID,
		Date:             civil.DateOf(m.TransactionDate),
		Description:      m.Description,
		Amount:           m.Amount,
		Type:             domain.TransactionType(m.TransactionType),
		Currency:         domain.Currency(m.Currency),
		AmountUSD:        fromNullDecimal(m.AmountUSD),
		ExchangeRateUsed: fromNullDecimal(m.ExchangeRateUsed),
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
