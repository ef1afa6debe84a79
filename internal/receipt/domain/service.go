package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// IssueReceiptRequest applies a payment to an invoice. Amount is a decimal
// string.
type IssueReceiptRequest struct {
	InvoiceID snowflake.ID `json:"id_factura"`
	Amount    string       `json:"monto"`
	Method    Method       `json:"metodo"`
	Reference string       `json:"referencia"`
}

// Service issues receipts and settles invoices once fully covered.
type Service interface {
	Issue(ctx context.Context, ispID snowflake.ID, req IssueReceiptRequest) (Receipt, error)
	ListByInvoice(ctx context.Context, ispID, invoiceID snowflake.ID) ([]Receipt, error)
}

var (
	ErrInvalidISP     = errors.New("invalid_isp")
	ErrInvalidInvoice = errors.New("invalid_invoice")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrInvalidMethod  = errors.New("invalid_method")
	ErrOverpayment    = errors.New("receipt_exceeds_balance")
)
