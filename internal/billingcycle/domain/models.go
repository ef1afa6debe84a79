package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingCycleStatus represents invoicing progress for a cycle.
type BillingCycleStatus string

const (
	BillingCycleStatusOpen    BillingCycleStatus = "OPEN"
	BillingCycleStatusClosing BillingCycleStatus = "CLOSING"
	BillingCycleStatusClosed  BillingCycleStatus = "CLOSED"
)

// BillingCycle is a monthly billing period for one ISP. Invoices are always
// emitted against the cycle that is open at emission time.
type BillingCycle struct {
	ID          snowflake.ID       `gorm:"primaryKey" json:"id_ciclo"`
	ISPID       snowflake.ID       `gorm:"not null;index;uniqueIndex:ux_billing_cycle_period,priority:1" json:"id_isp"`
	Year        int                `gorm:"not null;uniqueIndex:ux_billing_cycle_period,priority:2" json:"anio"`
	Month       time.Month         `gorm:"not null;uniqueIndex:ux_billing_cycle_period,priority:3" json:"mes"`
	PeriodStart time.Time          `gorm:"not null" json:"inicio"`
	PeriodEnd   time.Time          `gorm:"not null" json:"fin"`
	Status      BillingCycleStatus `gorm:"type:text;not null;default:'OPEN'" json:"estado"`
	OpenedAt    *time.Time         `gorm:"column:opened_at" json:"-"`
	ClosedAt    *time.Time         `gorm:"column:closed_at" json:"-"`
	LastError   *string            `gorm:"column:last_error;type:text" json:"-"`
	Metadata    datatypes.JSONMap  `gorm:"type:jsonb;not null;default:'{}'" json:"-"`
	CreatedAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt   time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (BillingCycle) TableName() string { return "billing_cycles" }

// Contains reports whether ts falls inside the cycle period.
func (c BillingCycle) Contains(ts time.Time) bool {
	return !ts.Before(c.PeriodStart) && ts.Before(c.PeriodEnd)
}
