package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func line(code string, dir EntryDirection, amount string) ParsedLine {
	d, _ := decimal.NewFromString(amount)
	return ParsedLine{AccountCode: code, Direction: dir, Amount: d}
}

func TestValidateBalanced(t *testing.T) {
	lines := []ParsedLine{
		line(AccountCodeAccountsReceivable, EntryDirectionDebit, "118.00"),
		line(AccountCodeRevenue, EntryDirectionCredit, "100.00"),
		line(AccountCodeITBISPayable, EntryDirectionCredit, "18.00"),
	}
	if err := ValidateBalanced(lines); err != nil {
		t.Fatalf("expected balanced, got %v", err)
	}
}

func TestValidateBalancedRejects(t *testing.T) {
	cases := []struct {
		name  string
		lines []ParsedLine
		want  error
	}{
		{"too few lines", []ParsedLine{line(AccountCodeCash, EntryDirectionDebit, "1")}, ErrInvalidEntryLines},
		{"negative amount", []ParsedLine{
			line(AccountCodeCash, EntryDirectionDebit, "-1"),
			line(AccountCodeRevenue, EntryDirectionCredit, "-1"),
		}, ErrInvalidLineAmount},
		{"bad direction", []ParsedLine{
			{AccountCode: AccountCodeCash, Direction: "sideways", Amount: decimal.New(1, 0)},
			line(AccountCodeRevenue, EntryDirectionCredit, "1"),
		}, ErrInvalidLineDirection},
		{"unbalanced", []ParsedLine{
			line(AccountCodeCash, EntryDirectionDebit, "10"),
			line(AccountCodeRevenue, EntryDirectionCredit, "9.99"),
		}, ErrUnbalancedEntry},
	}
	for _, tc := range cases {
		if err := ValidateBalanced(tc.lines); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
