package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// MonthLabels are the short month names used on chart axes and tables.
var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthlySeries holds one value per calendar month of a year. Index 0 is
// January; months with no rows are zero.
type MonthlySeries struct {
	Year   int
	Metric Metric
	Values [12]float64
}

// MonthValue is a (month, value) pair with Month in 1..12.
type MonthValue struct {
	Month int
	Value float64
}

// Growth is a year-over-year percentage. It is undefined when the prior
// value is zero.
type Growth struct {
	Percent float64
	Defined bool
}

// GrowthPlaceholder is displayed in place of an undefined growth.
const GrowthPlaceholder = "N/A"

// Aggregate sums the metric by month for the given year. Rows without a
// parsable date, or dated in another year, are ignored.
func Aggregate(sales []Sale, year int, metric Metric) MonthlySeries {
	series := MonthlySeries{Year: year, Metric: metric}
	cents := [12]int64{}
	for _, s := range sales {
		if s.PaymentDate.IsZero() || s.Year() != year {
			continue
		}
		i := s.Month() - 1
		if metric == MetricQuantity {
			series.Values[i] += float64(s.Quantity)
			continue
		}
		cents[i] += s.PaidAmount.Cents
	}
	if metric != MetricQuantity {
		for i, c := range cents {
			series.Values[i] = Money{Cents: c}.Units()
		}
	}
	return series
}

// SeriesFromMonths builds a series from sparse month values, filling the
// missing months with zero. Months outside 1..12 are an error.
func SeriesFromMonths(year int, metric Metric, months map[int]float64) (MonthlySeries, error) {
	series := MonthlySeries{Year: year, Metric: metric}
	for m, v := range months {
		if m < 1 || m > 12 {
			return MonthlySeries{}, fmt.Errorf("month %d: %w", m, ErrInvalidMonth)
		}
		series.Values[m-1] = v
	}
	return series, nil
}

// Points returns the twelve (month, value) pairs in month order.
func (s MonthlySeries) Points() []MonthValue {
	out := make([]MonthValue, 12)
	for i, v := range s.Values {
		out[i] = MonthValue{Month: i + 1, Value: v}
	}
	return out
}

// Value returns the value for month 1..12.
func (s MonthlySeries) Value(month int) float64 {
	if month < 1 || month > 12 {
		return 0
	}
	return s.Values[month-1]
}

func (s MonthlySeries) Total() float64 {
	var t float64
	for _, v := range s.Values {
		t += v
	}
	return t
}

func (s MonthlySeries) Max() float64 {
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		m = math.Max(m, v)
	}
	return m
}

func (s MonthlySeries) Min() float64 {
	m := s.Values[0]
	for _, v := range s.Values[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Mean is the average monthly value over all twelve months.
func (s MonthlySeries) Mean() float64 {
	return stats.Mean(s.Values[:])
}

// IsEmpty reports whether every month is zero.
func (s MonthlySeries) IsEmpty() bool {
	for _, v := range s.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

// YearOverYear compares each month of current against the same month of
// prior.
func YearOverYear(current, prior MonthlySeries) [12]Growth {
	var out [12]Growth
	for i := range current.Values {
		out[i] = GrowthOf(current.Values[i], prior.Values[i])
	}
	return out
}

// GrowthOf returns the percentage change from prior to current.
func GrowthOf(current, prior float64) Growth {
	if prior == 0 {
		return Growth{}
	}
	return Growth{Percent: (current - prior) / math.Abs(prior) * 100, Defined: true}
}

// Label formats the growth as "+12.5%", or the placeholder when undefined.
func (g Growth) Label() string {
	if !g.Defined {
		return GrowthPlaceholder
	}
	p := math.Round(g.Percent*10) / 10
	if p > 0 {
		return fmt.Sprintf("+%.1f%%", p)
	}
	if p == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", p)
}

// Years returns the distinct years that have at least one dated row.
func Years(sales []Sale) []int {
	seen := map[int]struct{}{}
	for _, s := range sales {
		if y := s.Year(); y != 0 {
			seen[y] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
