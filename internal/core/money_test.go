package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0", "0", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.out)), "got %s", got)
		})
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"euro", "12.5", "EUR", "€12.50"},
		{"dollar grouped", "1234567.891", "USD", "$1,234,567.89"},
		{"negative", "-40", "GBP", "-£40.00"},
		{"suffix symbol", "999.99", "CHF", "999.99 CHF"},
		{"lowercase code", "1000", "eur", "€1,000.00"},
		{"unknown code", "3", "MXN", "MXN 3.00"},
		{"no currency", "7.1", "", "7.10"},
		{"zero", "0", "EUR", "€0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatMoney(decimal.RequireFromString(tc.amount), tc.currency)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMustAmountPanics(t *testing.T) {
	assert.Panics(t, func() { MustAmount("nope") })
	assert.True(t, MustAmount("4,20").Equal(decimal.RequireFromString("4.2")))
}
