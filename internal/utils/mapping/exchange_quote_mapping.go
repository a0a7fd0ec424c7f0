package mapping

import (
	"cloud.google.com/go/civil"
	"github.com/SscSPs/multicurrency_ledger/internal/core/domain"
	"github.com/SscSPs/multicurrency_ledger/internal/models"
)

func ToModelExchangeQuote(d domain.ExchangeQuote) models.ExchangeQuote {
	source := d.SourceDate
	if !source.IsValid() {
		source = d.Date
	}
	return models.ExchangeQuote{
		QuoteDate:  domain.DateToTime(d.Date),
		VESPerUSD:  d.VESPerUSD,
		VESPerEUR:  d.VESPerEUR,
		SourceDate: domain.DateToTime(source),
		FetchedAt:  d.FetchedAt,
	}
}

func ToDomainExchangeQuote(m models.ExchangeQuote) domain.ExchangeQuote {
	return domain.ExchangeQuote{
		Date:       civil.DateOf(m.QuoteDate),
		VESPerUSD:  m.VESPerUSD,
		VESPerEUR:  m.VESPerEUR,
		SourceDate: civil.DateOf(m.SourceDate),
		FetchedAt:  m.FetchedAt,
	}
}
