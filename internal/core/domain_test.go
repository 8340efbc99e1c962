package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMetric(t *testing.T) {
	cases := []struct {
		in   string
		want Metric
		err  error
	}{
		{"", MetricAmount, nil},
		{"amount", MetricAmount, nil},
		{" Quantity ", MetricQuantity, nil},
		{"revenue", "", ErrInvalidMetric},
	}
	for _, tc := range cases {
		got, err := ParseMetric(tc.in)
		if !errors.Is(err, tc.err) || got != tc.want {
			t.Fatalf("%q: got (%q,%v), want (%q,%v)", tc.in, got, err, tc.want, tc.err)
		}
	}
}

func TestParsePaymentDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-05 13:45:10", time.Date(2024, 3, 5, 13, 45, 10, 0, time.UTC), true},
		{"2024/3/5", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"3/5/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024年3月5日", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"45356", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true}, // Excel serial
		{"45356.5", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), true},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
		{"0", time.Time{}, false},
		{"2024-13-01", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParsePaymentDate(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("%q got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSaleYearMonthUnknownDate(t *testing.T) {
	var s Sale
	if s.Year() != 0 || s.Month() != 0 {
		t.Fatalf("zero date should report 0/0, got %d/%d", s.Year(), s.Month())
	}
}

func TestValidateYear(t *testing.T) {
	if err := ValidateYear(2024); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, y := range []int{0, 1899, 10000} {
		if err := ValidateYear(y); !errors.Is(err, ErrInvalidYear) {
			t.Fatalf("year %d expected ErrInvalidYear, got %v", y, err)
		}
	}
}
