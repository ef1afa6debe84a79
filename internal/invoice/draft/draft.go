// Package draft maintains an in-memory invoice draft while line items are
// composed. Subtotal, tax and total are always derived from the current items
// and discount; they are never stored independently.
package draft

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/weperezh01/isp-core/internal/clock"
)

// ITBISRate is the Dominican Republic value-added tax applied to the subtotal.
var ITBISRate = decimal.New(18, -2)

var (
	ErrMissingDescription = errors.New("missing_description")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidUnitPrice   = errors.New("invalid_unit_price")
	ErrLineItemNotFound   = errors.New("line_item_not_found")
)

// discountPattern accepts unsigned decimals only. Anything else leaves the
// prior discount untouched.
var discountPattern = regexp.MustCompile(`^[0-9]*\.?[0-9]*$`)

// LineItem is a single article on a draft. Immutable once added; removal is
// the only mutation.
type LineItem struct {
	Order       int             `json:"orden"`
	ProductID   *snowflake.ID   `json:"id_producto,omitempty"`
	Description string          `json:"descripcion"`
	Quantity    decimal.Decimal `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	LineTotal   decimal.Decimal `json:"total_linea"`
	Date        time.Time       `json:"fecha"`
}

// Draft accumulates line items and a discount for a not-yet-submitted invoice.
type Draft struct {
	clk clock.Clock

	items       []LineItem
	discountRaw string
	discount    decimal.Decimal

	subtotal decimal.Decimal
	tax      decimal.Decimal
	total    decimal.Decimal
}

// New returns an empty draft. A nil clock falls back to the system clock.
func New(clk clock.Clock) *Draft {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	d := &Draft{clk: clk}
	d.recompute()
	return d
}

// AddLineItem validates and appends an item. Order is assigned sequentially
// from the current length, the line total is quantity times unit price and the
// entry is stamped with the current date.
func (d *Draft) AddLineItem(description, quantity, unitPrice string, productID *snowflake.ID) (LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return LineItem{}, ErrMissingDescription
	}

	qty, err := parseDecimal(quantity)
	if err != nil || qty.Sign() <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}

	price, err := parseDecimal(unitPrice)
	if err != nil || price.Sign() < 0 {
		return LineItem{}, ErrInvalidUnitPrice
	}

	item := LineItem{
		Order:       len(d.items) + 1,
		ProductID:   productID,
		Description: description,
		Quantity:    qty,
		UnitPrice:   price,
		LineTotal:   qty.Mul(price),
		Date:        d.clk.Now(),
	}
	d.items = append(d.items, item)
	d.recompute()
	return item, nil
}

// RemoveLineItem deletes the item at the given position. Remaining items keep
// their original order numbers; gaps are accepted downstream.
func (d *Draft) RemoveLineItem(index int) error {
	if index < 0 || index >= len(d.items) {
		return ErrLineItemNotFound
	}
	d.items = append(d.items[:index], d.items[index+1:]...)
	d.recompute()
	return nil
}

// SetDiscount applies a new discount. Input not matching the unsigned-decimal
// pattern is ignored and the prior discount stands.
func (d *Draft) SetDiscount(value string) {
	if !discountPattern.MatchString(value) {
		return
	}
	parsed := decimal.Zero
	if value != "" && value != "." {
		var err error
		parsed, err = decimal.NewFromString(value)
		if err != nil {
			return
		}
	}
	d.discountRaw = value
	d.discount = parsed
	d.recompute()
}

// recompute rebuilds the derived totals. Pure function of items + discount,
// idempotent by construction.
func (d *Draft) recompute() {
	subtotal := decimal.Zero
	for _, item := range d.items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	d.subtotal = subtotal
	d.tax = subtotal.Mul(ITBISRate)
	d.total = subtotal.Sub(d.discount).Add(d.tax)
}

// Items returns a copy of the current line items in insertion order.
func (d *Draft) Items() []LineItem {
	out := make([]LineItem, len(d.items))
	copy(out, d.items)
	return out
}

// Len reports the number of line items.
func (d *Draft) Len() int { return len(d.items) }

// Discount returns the effective discount value.
func (d *Draft) Discount() decimal.Decimal { return d.discount }

// DiscountInput returns the last accepted raw discount input.
func (d *Draft) DiscountInput() string { return d.discountRaw }

// Subtotal returns the sum of all line totals.
func (d *Draft) Subtotal() decimal.Decimal { return d.subtotal }

// Tax returns the ITBIS amount over the subtotal.
func (d *Draft) Tax() decimal.Decimal { return d.tax }

// Total returns subtotal minus discount plus tax.
func (d *Draft) Total() decimal.Decimal { return d.total }

func parseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "." {
		return decimal.Zero, errors.New("empty_decimal")
	}
	return decimal.NewFromString(value)
}
