// Package domain holds the issued invoice model. Drafts are assembled in the
// draft package; once emitted an invoice is immutable except for its status.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the collection state of an issued invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pendiente"
	InvoicePaid    InvoiceStatus = "pagada"
	InvoiceVoided  InvoiceStatus = "anulada"
)

// Invoice is an emitted fiscal document. Monetary columns are decimals, never
// floats, so repeated aggregation cannot drift.
type Invoice struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id_factura"`
	ISPID        snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_invoices_ncf,priority:1" json:"id_isp"`
	NCF          string          `gorm:"type:text;not null;uniqueIndex:ux_invoices_ncf,priority:2" json:"ncf"`
	ClientID     snowflake.ID    `gorm:"not null;index" json:"id_cliente"`
	CycleID      snowflake.ID    `gorm:"not null;index" json:"id_ciclo"`
	ConnectionID *snowflake.ID   `gorm:"index" json:"id_conexion,omitempty"`
	Description  string          `gorm:"type:text" json:"descripcion"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"subtotal"`
	Discount     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"descuento"`
	ITBIS        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"itbis"`
	Total        decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"monto_total"`
	Status       InvoiceStatus   `gorm:"type:text;not null;default:'pendiente'" json:"estado"`
	IssueDate    string          `gorm:"type:text;not null" json:"fecha_emision"`
	IssueTime    string          `gorm:"type:text;not null" json:"hora_emision"`
	IssuedAt     time.Time       `gorm:"not null" json:"-"`
	VoidReason   string          `gorm:"type:text" json:"motivo_anulacion,omitempty"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`

	Articles []Article `gorm:"-" json:"articulos,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Article is one billed line of an invoice. Order is the position the line
// held in the draft, gaps included.
type Article struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id_articulo"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"id_factura"`
	Order       int             `gorm:"column:position;not null" json:"orden"`
	ProductID   *snowflake.ID   `gorm:"index" json:"id_producto,omitempty"`
	Description string          `gorm:"type:text;not null" json:"descripcion"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"cantidad"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"precio_unitario"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_linea"`
	Date        string          `gorm:"type:text" json:"fecha"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Article) TableName() string { return "invoice_articles" }

// NCFSequence hands out consecutive fiscal numbers per ISP and prefix.
type NCFSequence struct {
	ISPID  snowflake.ID `gorm:"primaryKey"`
	Prefix string       `gorm:"primaryKey;type:text"`
	Next   int64        `gorm:"not null;default:1"`
}

// TableName sets the database table name.
func (NCFSequence) TableName() string { return "ncf_sequences" }
