package core

import (
	"errors"
	"strings"
	"time"
)

const (
	MetricAmount   Metric = "amount"
	MetricQuantity Metric = "quantity"
)

type (
	Metric string

	Money struct {
		Cents int64
	}

	// Sale is one row of the sales spreadsheet.
	Sale struct {
		PaymentDate time.Time // zero when the cell could not be parsed
		PaidAmount  Money
		Quantity    int64
		Province    string
	}

	// SalesTable is a decoded spreadsheet together with coercion counters.
	SalesTable struct {
		Rows       []Sale
		BadDates   int
		BadAmounts int
	}
)

var (
	ErrInvalidMetric = errors.New("invalid metric")
	ErrInvalidYear   = errors.New("invalid year")
	ErrInvalidMonth  = errors.New("invalid month")
)

// ParseMetric accepts "amount" or "quantity" in any case. Empty input
// defaults to amount.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MetricAmount):
		return MetricAmount, nil
	case string(MetricQuantity):
		return MetricQuantity, nil
	default:
		return "", ErrInvalidMetric
	}
}

func (m Metric) String() string {
	return string(m)
}

// Label is the human-readable axis label for the metric.
func (m Metric) Label() string {
	switch m {
	case MetricQuantity:
		return "Quantity"
	default:
		return "Paid amount"
	}
}

// Value extracts the metric from a sale in display units.
func (m Metric) Value(s Sale) float64 {
	if m == MetricQuantity {
		return float64(s.Quantity)
	}
	return s.PaidAmount.Units()
}

// ValidateYear rejects years outside what a spreadsheet can reasonably hold.
func ValidateYear(year int) error {
	if year < 1900 || year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Year returns the payment year, or 0 when the date is unknown.
func (s Sale) Year() int {
	if s.PaymentDate.IsZero() {
		return 0
	}
	return s.PaymentDate.Year()
}

// Month returns the payment month 1-12, or 0 when the date is unknown.
func (s Sale) Month() int {
	if s.PaymentDate.IsZero() {
		return 0
	}
	return int(s.PaymentDate.Month())
}

// InYear filters rows to those paid in the given year.
func (t SalesTable) InYear(year int) []Sale {
	out := make([]Sale, 0, len(t.Rows))
	for _, s := range t.Rows {
		if s.Year() == year {
			out = append(out, s)
		}
	}
	return out
}
