package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "RD$ 0.00"},
		{"35.4", "RD$ 35.40"},
		{"1234.56", "RD$ 1,234.56"},
		{"1234567.8", "RD$ 1,234,567.80"},
		{"-5", "RD$ -5.00"},
	}
	for _, tc := range cases {
		amount := decimal.RequireFromString(tc.in)
		if got := Currency(amount); got != tc.want {
			t.Fatalf("Currency(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDate(t *testing.T) {
	value := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	if got := Date(value); got != "14/03/2026" {
		t.Fatalf("Date = %q", got)
	}
	if got := Date(time.Time{}); got != "-" {
		t.Fatalf("zero Date = %q", got)
	}
	if got := TimeOfDay(value); got != "09:30:00" {
		t.Fatalf("TimeOfDay = %q", got)
	}
}
