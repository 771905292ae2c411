// Package money holds the decimal arithmetic shared by pricing and reporting.
// All amounts are shopspring decimals; rounding to two places happens at
// aggregation boundaries, never inside intermediate terms.
package money

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// Round normalises an amount to two decimal places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApplyPercent returns amount * percent / 100, unrounded.
func ApplyPercent(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// BillableDays converts a time span into whole charged days: any started
// 24h block counts, and every span charges at least one day.
func BillableDays(start, end time.Time) int64 {
	if !end.After(start) {
		return 1
	}
	span := end.Sub(start)
	days := int64(span / (24 * time.Hour))
	if span%(24*time.Hour) > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

var printer = message.NewPrinter(language.English)

// Format renders an amount with thousands separators and a currency code
// suffix, e.g. "19,125.00 DKK". Display only, never parsed back.
func Format(d decimal.Decimal, currency string) string {
	f, _ := Round(d).Float64()
	if currency == "" {
		return printer.Sprintf("%.2f", f)
	}
	return printer.Sprintf("%.2f %s", f, currency)
}
