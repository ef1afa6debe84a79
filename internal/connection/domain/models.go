// Package domain holds the service connection model. A connection ties a
// subscriber to a router with a plan and a recurring fee, and is the unit the
// billing cycle invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ConnectionStatus is the provisioning state of a connection.
type ConnectionStatus string

const (
	ConnectionActive    ConnectionStatus = "activa"
	ConnectionSuspended ConnectionStatus = "suspendida"
	ConnectionCut       ConnectionStatus = "cortada"
)

// Connection is a subscriber's service point.
type Connection struct {
	ID         snowflake.ID     `gorm:"primaryKey" json:"id_conexion"`
	ISPID      snowflake.ID     `gorm:"not null;index" json:"id_isp"`
	ClientID   snowflake.ID     `gorm:"not null;index" json:"id_cliente"`
	RouterID   *snowflake.ID    `gorm:"index" json:"id_router,omitempty"`
	Address    string           `gorm:"type:text" json:"direccion"`
	PlanName   string           `gorm:"type:text" json:"plan"`
	SpeedMbps  int              `gorm:"not null;default:0" json:"velocidad_mbps"`
	MonthlyFee decimal.Decimal  `gorm:"type:numeric(18,2);not null;default:0" json:"precio_mensual"`
	Status     ConnectionStatus `gorm:"type:text;not null;default:'activa'" json:"estado"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Connection) TableName() string { return "connections" }
