package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"12,5", 1250, true},
		{"1,234", 123400, true},
		{"1,234.56", 123456, true},
		{"¥1,234.50", 123450, true},
		{"￥ 99", 9900, true},
		{"1.005", 101, true}, // half away from zero
		{"-3.005", -301, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", -100, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"¥", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got.Cents != tc.out {
			t.Fatalf("%q expected %d, got %d", tc.in, tc.out, got.Cents)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"3", 3, true},
		{"3.0", 3, true},
		{"1,200", 1200, true},
		{"-2", -2, true},
		{"2.5", 0, false},
		{"", 0, false},
		{"x", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseQuantity(tc.in)
		if ok != tc.ok || got != tc.out {
			t.Fatalf("%q got (%d,%v), want (%d,%v)", tc.in, got, ok, tc.out, tc.ok)
		}
	}
}

func TestMoneyUnitsRoundTrip(t *testing.T) {
	if got := (Money{Cents: 12345}).Units(); got != 123.45 {
		t.Fatalf("units: got %v", got)
	}
	if got := MoneyFromUnits(123.45); got.Cents != 12345 {
		t.Fatalf("from units: got %d", got.Cents)
	}
}
