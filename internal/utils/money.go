package utils

import "github.com/shopspring/decimal"

// FormatMinor renders an amount held in minor units with two decimals.
func FormatMinor(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// MinorToDecimal converts minor units to a major-unit decimal.
func MinorToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
