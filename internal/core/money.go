// Package core provides the sales data model and the monthly aggregation
// pipeline.
//
// This file contains functions for parsing monetary amounts and quantities
// out of spreadsheet cells.
package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyStripper = strings.NewReplacer(
	"¥", "", "￥", "", "$", "", "€", "", "£", "",
	" ", "", "\u00a0", "", "\t", "",
)

// ParseAmount converts a spreadsheet cell into cents.
//
// Currency symbols and whitespace are ignored. Commas are treated as
// thousands separators unless the value contains a single comma followed by
// at most two digits and no dot, in which case it is a decimal comma.
// Rounding is half away from zero. Zero and negative amounts are valid.
//
// Examples:
//
//	ParseAmount("¥1,234.50") -> 123450, true
//	ParseAmount("12,5")      -> 1250, true
//	ParseAmount("-3.005")    -> -301, true
//	ParseAmount("n/a")       -> 0, false
func ParseAmount(s string) (Money, bool) {
	s = currencyStripper.Replace(strings.TrimSpace(s))
	if s == "" {
		return Money{}, false
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, false
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, true
}

func normalizeSeparators(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		idx := strings.IndexByte(s, ',')
		if digits := len(s) - idx - 1; digits > 0 && digits <= 2 {
			return s[:idx] + "." + s[idx+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

// ParseQuantity converts a cell into a whole quantity. Values like "3.0"
// (as exported by spreadsheets for numeric cells) are accepted.
func ParseQuantity(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return d.IntPart(), true
}

// Units returns the amount in currency units for display and plotting.
// Use cents for arithmetic.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// MoneyFromUnits converts a display value back to cents.
func MoneyFromUnits(v float64) Money {
	return Money{Cents: decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()}
}
