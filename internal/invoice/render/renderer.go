package render

import (
	"time"

	"github.com/shopspring/decimal"
)

// RenderInput is the deterministic input used for invoice rendering.
type RenderInput struct {
	ISP     ISPView
	Invoice InvoiceView
	Client  ClientView
	Items   []LineItemView
}

// ISPView carries the letterhead of the emitting provider.
type ISPView struct {
	Name         string
	RNC          string
	Address      string
	Phone        string
	LogoURL      string
	FooterNotes  string
	PrimaryColor string
	FontFamily   string
}

type InvoiceView struct {
	ID        string
	NCF       string
	Status    string
	IssueDate string
	IssueTime string
	IssuedAt  time.Time
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	ITBIS     decimal.Decimal
	Total     decimal.Decimal
}

type ClientView struct {
	Name    string
	Cedula  string
	RNC     string
	Phone   string
	Address string
}

type LineItemView struct {
	Order       int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}
