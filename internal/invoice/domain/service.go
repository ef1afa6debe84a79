package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// ArticleInput is one line submitted when emitting or extending an invoice.
// Quantity and UnitPrice are decimal strings.
type ArticleInput struct {
	ProductID   *snowflake.ID `json:"id_producto,omitempty"`
	Description string        `json:"descripcion"`
	Quantity    string        `json:"cantidad"`
	UnitPrice   string        `json:"precio_unitario"`
	Date        string        `json:"fecha"`
}

// CreateInvoiceRequest emits an invoice from a set of lines. CycleID zero
// means the cycle covering the emission instant.
type CreateInvoiceRequest struct {
	ClientID     snowflake.ID  `json:"id_cliente"`
	CycleID      snowflake.ID  `json:"id_ciclo"`
	ConnectionID *snowflake.ID `json:"id_conexion,omitempty"`
	Description  string        `json:"descripcion"`
	Discount     string        `json:"descuento"`
	// NCF carries a caller-assigned fiscal number. Blank lets the
	// service draw the next one from the ISP sequence.
	NCF      string         `json:"ncf"`
	Articles []ArticleInput `json:"articulos"`
}

// ListInvoiceRequest filters the invoice listing. Zero IDs mean no filter.
type ListInvoiceRequest struct {
	ClientID snowflake.ID
	CycleID  snowflake.ID
	Status   InvoiceStatus
}

// Service emits and manages invoices inside one ISP.
type Service interface {
	Create(ctx context.Context, ispID snowflake.ID, req CreateInvoiceRequest) (Invoice, error)
	// AttachArticles appends lines to a pending invoice and recomputes its
	// totals. The batch is all-or-nothing.
	AttachArticles(ctx context.Context, ispID, invoiceID snowflake.ID, articles []ArticleInput) (Invoice, error)
	GetByID(ctx context.Context, ispID, id snowflake.ID) (Invoice, error)
	List(ctx context.Context, ispID snowflake.ID, req ListInvoiceRequest) ([]Invoice, error)
	MarkPaid(ctx context.Context, ispID, id snowflake.ID) (Invoice, error)
	Void(ctx context.Context, ispID, id snowflake.ID, reason string) (Invoice, error)
	// RenderHTML produces the printable document for an invoice.
	RenderHTML(ctx context.Context, ispID, id snowflake.ID) (string, error)
}

var (
	ErrInvalidISP      = errors.New("invalid_isp")
	ErrInvalidClient   = errors.New("invalid_client")
	ErrInvalidCycle    = errors.New("invalid_billing_cycle")
	ErrCycleClosed     = errors.New("billing_cycle_closed")
	ErrNoArticles      = errors.New("invoice_without_articles")
	ErrInvalidArticle  = errors.New("invalid_article")
	ErrInvalidDiscount = errors.New("invalid_discount")
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvoiceNotOpen  = errors.New("invoice_not_pending")
)
