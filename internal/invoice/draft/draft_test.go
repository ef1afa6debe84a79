package draft

import (
	"errors"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestDraft() *Draft {
	return New(fixedClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)})
}

func TestAddLineItemComputesTotals(t *testing.T) {
	d := newTestDraft()

	item, err := d.AddLineItem("Cable", "2", "15.00", nil)
	if err != nil {
		t.Fatalf("add line item: %v", err)
	}
	if item.Order != 1 {
		t.Fatalf("expected order 1, got %d", item.Order)
	}
	if got := item.LineTotal.String(); got != "30" {
		t.Fatalf("expected line total 30, got %s", got)
	}
	if got := d.Subtotal().String(); got != "30" {
		t.Fatalf("expected subtotal 30, got %s", got)
	}
	if got := d.Tax().String(); got != "5.4" {
		t.Fatalf("expected tax 5.4, got %s", got)
	}
	if got := d.Total().String(); got != "35.4" {
		t.Fatalf("expected total 35.4, got %s", got)
	}
}

func TestSetDiscountAdjustsTotal(t *testing.T) {
	d := newTestDraft()
	if _, err := d.AddLineItem("Cable", "2", "15.00", nil); err != nil {
		t.Fatalf("add line item: %v", err)
	}

	d.SetDiscount("5")
	if got := d.Total().String(); got != "30.4" {
		t.Fatalf("expected total 30.4 after discount, got %s", got)
	}
}

func TestSetDiscountIgnoresMalformedInput(t *testing.T) {
	d := newTestDraft()
	if _, err := d.AddLineItem("Cable", "2", "15.00", nil); err != nil {
		t.Fatalf("add line item: %v", err)
	}
	d.SetDiscount("5")

	for _, input := range []string{"abc", "1.2.3", "-4", "5,0", " 5"} {
		d.SetDiscount(input)
		if got := d.DiscountInput(); got != "5" {
			t.Fatalf("input %q should be rejected, discount input became %q", input, got)
		}
		if got := d.Total().String(); got != "30.4" {
			t.Fatalf("input %q changed total to %s", input, got)
		}
	}
}

func TestRemoveLineItemEmptiesDraft(t *testing.T) {
	d := newTestDraft()
	if _, err := d.AddLineItem("Cable", "2", "15.00", nil); err != nil {
		t.Fatalf("add line item: %v", err)
	}

	if err := d.RemoveLineItem(0); err != nil {
		t.Fatalf("remove line item: %v", err)
	}
	if d.Len() != 0 {
		t.Fatalf("expected empty draft, got %d items", d.Len())
	}
	if got := d.Subtotal().String(); got != "0" {
		t.Fatalf("expected subtotal 0, got %s", got)
	}
	if got := d.Tax().String(); got != "0" {
		t.Fatalf("expected tax 0, got %s", got)
	}
	if got := d.Total().String(); got != "0" {
		t.Fatalf("expected total 0, got %s", got)
	}
}

func TestRemoveLineItemKeepsOriginalOrderNumbers(t *testing.T) {
	d := newTestDraft()
	for _, desc := range []string{"Cable", "Router", "Antena"} {
		if _, err := d.AddLineItem(desc, "1", "10", nil); err != nil {
			t.Fatalf("add %s: %v", desc, err)
		}
	}

	if err := d.RemoveLineItem(1); err != nil {
		t.Fatalf("remove: %v", err)
	}

	items := d.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Order != 1 || items[1].Order != 3 {
		t.Fatalf("expected orders [1 3], got [%d %d]", items[0].Order, items[1].Order)
	}
}

func TestRemoveLineItemOutOfRange(t *testing.T) {
	d := newTestDraft()
	if err := d.RemoveLineItem(0); !errors.Is(err, ErrLineItemNotFound) {
		t.Fatalf("expected ErrLineItemNotFound, got %v", err)
	}
	if err := d.RemoveLineItem(-1); !errors.Is(err, ErrLineItemNotFound) {
		t.Fatalf("expected ErrLineItemNotFound, got %v", err)
	}
}

func TestAddLineItemValidation(t *testing.T) {
	cases := []struct {
		name        string
		description string
		quantity    string
		unitPrice   string
		want        error
	}{
		{"blank description", "   ", "1", "10", ErrMissingDescription},
		{"empty quantity", "Cable", "", "10", ErrInvalidQuantity},
		{"zero quantity", "Cable", "0", "10", ErrInvalidQuantity},
		{"negative quantity", "Cable", "-1", "10", ErrInvalidQuantity},
		{"garbage quantity", "Cable", "dos", "10", ErrInvalidQuantity},
		{"empty unit price", "Cable", "1", "", ErrInvalidUnitPrice},
		{"negative unit price", "Cable", "1", "-5", ErrInvalidUnitPrice},
	}

	for _, tc := range cases {
		d := newTestDraft()
		if _, err := d.AddLineItem(tc.description, tc.quantity, tc.unitPrice, nil); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if d.Len() != 0 {
			t.Fatalf("%s: rejected add mutated the draft", tc.name)
		}
	}
}

func TestSubtotalAlwaysMatchesItems(t *testing.T) {
	d := newTestDraft()
	inputs := [][2]string{{"3", "9.99"}, {"1", "149.50"}, {"12", "0.75"}, {"2.5", "40"}}
	for i, in := range inputs {
		if _, err := d.AddLineItem("Item", in[0], in[1], nil); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := d.RemoveLineItem(2); err != nil {
		t.Fatalf("remove: %v", err)
	}

	sum := d.Items()[0].LineTotal
	for _, item := range d.Items()[1:] {
		sum = sum.Add(item.LineTotal)
	}
	if !sum.Equal(d.Subtotal()) {
		t.Fatalf("subtotal %s != sum of line totals %s", d.Subtotal(), sum)
	}
	if !d.Tax().Equal(d.Subtotal().Mul(ITBISRate)) {
		t.Fatalf("tax %s != subtotal * 0.18", d.Tax())
	}
	if !d.Total().Equal(d.Subtotal().Sub(d.Discount()).Add(d.Tax())) {
		t.Fatalf("total %s inconsistent", d.Total())
	}
}

func TestRepeatedAdditionHasNoFloatDrift(t *testing.T) {
	d := newTestDraft()
	for i := 0; i < 100; i++ {
		if _, err := d.AddLineItem("Mensualidad", "1", "0.10", nil); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if got := d.Subtotal().String(); got != "10" {
		t.Fatalf("expected subtotal exactly 10, got %s", got)
	}
}
