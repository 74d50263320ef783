package models

import "fmt"

// Currency is the closed set of wallet currencies. Balances are keyed by
// (user, currency); anything outside this set is rejected at the boundary
// so a typo can never create a phantom balance row.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencySYP Currency = "SYP"
)

func Currencies() []Currency { return []Currency{CurrencyUSD, CurrencySYP} }

func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyUSD, CurrencySYP:
		return Currency(s), nil
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

func (c Currency) Valid() bool {
	_, err := ParseCurrency(string(c))
	return err == nil
}
