// Package domain holds payment receipts against issued invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Method is how the payment came in.
type Method string

const (
	MethodCash     Method = "efectivo"
	MethodTransfer Method = "transferencia"
	MethodCard     Method = "tarjeta"
)

// Receipt is one payment applied to an invoice. Amounts are decimals.
type Receipt struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id_recibo"`
	ISPID      snowflake.ID    `gorm:"not null;index" json:"id_isp"`
	InvoiceID  snowflake.ID    `gorm:"not null;index" json:"id_factura"`
	ClientID   snowflake.ID    `gorm:"not null;index" json:"id_cliente"`
	Amount     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"monto"`
	Method     Method          `gorm:"type:text;not null" json:"metodo"`
	Reference  string          `gorm:"type:text" json:"referencia"`
	ReceivedAt time.Time       `gorm:"not null" json:"-"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Receipt) TableName() string { return "receipts" }
