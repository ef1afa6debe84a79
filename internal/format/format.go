// Package format holds the currency and date helpers shared by handlers and
// the invoice renderer.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency renders a monetary value with the Dominican peso prefix and
// thousands separators, e.g. RD$ 1,234.56.
func Currency(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	grouped := groupThousands(parts[0])

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("RD$ %s%s.%s", sign, grouped, parts[1])
}

// Date renders a calendar date as dd/mm/yyyy, the format the screens display.
func Date(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("02/01/2006")
}

// TimeOfDay renders a clock time as HH:MM:SS.
func TimeOfDay(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.Format("15:04:05")
}

// Quantity renders a decimal quantity without trailing zeros.
func Quantity(value decimal.Decimal) string {
	return value.String()
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
