package mapping

import (
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/SscSPs/multicurrency_ledger/internal/models"
)

// The two audit structs differ only in tags, so a conversion is enough.
// Audit timestamps are stored in UTC.

func ToModelAuditFields(d domain.AuditFields) models.AuditFields {
	m := models.AuditFields(d)
	m.CreatedAt, m.LastUpdatedAt = m.CreatedAt.UTC(), m.LastUpdatedAt.UTC()
	return m
}

func ToDomainAuditFields(m models.AuditFields) domain.AuditFields {
	return domain.AuditFields(m)
}
