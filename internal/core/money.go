// Package core provides money and weight display helpers.
//
// Arithmetic on amounts stays in float64; these helpers only format values
// for presentation, rounding half-up to two decimals.
package core

import "github.com/shopspring/decimal"

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₹"

// FormatAmount renders an amount as "₹12.50".
func FormatAmount(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Abs().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}

// FormatWeight renders a weight as "2.50 kg".
func FormatWeight(kg float64) string {
	return decimal.NewFromFloat(kg).StringFixed(2) + " kg"
}
