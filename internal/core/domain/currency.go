package domain

import (
	"fmt"
	"strings"
)

// Currency is one of the closed set of currencies an account can hold.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	VES Currency = "VES"
)

// SupportedCurrencies lists every currency an account can be opened in.
var SupportedCurrencies = []Currency{USD, EUR, VES}

// IsValid reports whether c belongs to the supported set.
func (c Currency) IsValid() bool {
	switch c {
	case USD, EUR, VES:
		return true
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// ParseCurrency normalizes a currency code and checks it against the supported set.
func ParseCurrency(code string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	if !c.IsValid() {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return c, nil
}
