// Package core provides the domain model shared by the reporting layers.
//
// This file contains helpers for parsing decimal amounts and rendering them
// in a currency of record.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencySymbols maps ISO codes to their display symbol and whether the
// symbol trails the number.
var currencySymbols = map[string]struct {
	symbol string
	suffix bool
}{
	"EUR": {"€", false},
	"USD": {"$", false},
	"GBP": {"£", false},
	"BRL": {"R$", false},
	"JPY": {"¥", false},
	"CHF": {"CHF", true},
	"PLN": {"zł", true},
	"SEK": {"kr", true},
}

// ParseAmount converts a decimal string to a non-negative amount.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Negative values
// and malformed input return ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// MustAmount parses s and panics on failure. Intended for fixtures.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FormatMoney renders amount with two decimals, grouped thousands and the
// currency symbol. Unknown codes are rendered as "CODE 1,234.50".
//
// Amounts are never converted between currencies.
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	neg := amount.IsNegative()
	s := groupThousands(amount.Abs().StringFixed(2))

	sym, ok := currencySymbols[code]
	var out string
	switch {
	case !ok && code == "":
		out = s
	case !ok:
		out = code + " " + s
	case sym.suffix:
		out = s + " " + sym.symbol
	default:
		out = sym.symbol + s
	}
	if neg {
		return "-" + out
	}
	return out
}

func groupThousands(fixed string) string {
	intPart, frac, _ := strings.Cut(fixed, ".")
	if len(intPart) <= 3 {
		return fixed
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + "." + frac
}
