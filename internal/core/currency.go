// Package core provides the multi-currency ledger arithmetic shared by every
// editor in the back office.
//
// This file contains the currency normalizer: converting an amount, declared
// in one currency with an optional manual exchange rate, into the reporting
// currency of a document.
package core

import "math"

const (
	// EGP is the primary ledger currency.
	EGP Currency = "EGP"
	// USD is the secondary (foreign) currency. Exchange rates are expressed
	// as EGP per one USD.
	USD Currency = "USD"
)

type (
	Currency string

	// Money is an amount declared in a currency. ExchangeRate is only
	// meaningful for USD amounts; zero means the rate was not supplied.
	Money struct {
		Amount       float64  `json:"amount"`
		Currency     Currency `json:"currency"`
		ExchangeRate float64  `json:"exchange_rate,omitempty"`
	}
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case EGP, USD:
		return true
	default:
		return false
	}
}

func (c Currency) String() string {
	return string(c)
}

// UsableRate reports whether rate can be applied: positive and finite.
// Zero, negative, NaN and infinite rates all mean "rate not supplied".
func UsableRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 1)
}

// ToPrimary converts a secondary-currency amount into the primary currency
// (amount * rate). The amount passes through unchanged when the rate is not usable.
func ToPrimary(amount, rate float64) float64 {
	if !UsableRate(rate) {
		return amount
	}
	return amount * rate
}

// ToSecondary converts a primary-currency amount into the secondary currency
// (amount / rate). The amount passes through unchanged when the rate is not usable.
func ToSecondary(amount, rate float64) float64 {
	if !UsableRate(rate) {
		return amount
	}
	return amount / rate
}

// Normalize expresses amount, declared in currency, in the reporting currency.
//
// Same currency returns the amount unchanged whatever the rate. A missing or
// unusable rate also returns the amount unchanged: this is the no-conversion
// policy, not a validation step. Normalize never fails; NaN amounts propagate.
func Normalize(amount float64, currency, reporting Currency, rate float64) float64 {
	if currency == reporting {
		return amount
	}
	switch {
	case currency == USD && reporting == EGP:
		return ToPrimary(amount, rate)
	case currency == EGP && reporting == USD:
		return ToSecondary(amount, rate)
	default:
		return amount
	}
}

// In returns m expressed in the reporting currency.
func (m Money) In(reporting Currency) float64 {
	return Normalize(m.Amount, m.Currency, reporting, m.ExchangeRate)
}
