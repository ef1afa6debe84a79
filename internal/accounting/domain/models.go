// Package domain holds the double-entry accounting add-on. ISPs subscribe to
// it separately from the core back office.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// EntryDirection represents debit or credit postings.
type EntryDirection string

const (
	EntryDirectionDebit  EntryDirection = "debit"
	EntryDirectionCredit EntryDirection = "credit"
)

// Source types for ledger entries.
const (
	SourceTypeInvoice    = "invoice"
	SourceTypeReceipt    = "receipt"
	SourceTypeAdjustment = "adjustment"
)

// Chart-of-accounts codes seeded for every subscribed ISP.
const (
	AccountCodeAccountsReceivable = "accounts_receivable"
	AccountCodeRevenue            = "revenue"
	AccountCodeITBISPayable       = "itbis_payable"
	AccountCodeCash               = "cash"
)

// Account defines a chart-of-accounts entry.
type Account struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	ISPID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_accounts_isp_code,priority:1"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_isp_code,priority:2"`
	Name      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounting_accounts" }

// Entry captures the immutable header for a financial event.
type Entry struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	ISPID      snowflake.ID `gorm:"not null;index"`
	SourceType string       `gorm:"type:text;not null;index"`
	SourceID   snowflake.ID `gorm:"not null;index"`
	OccurredAt time.Time    `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "accounting_entries" }

// EntryLine is a double-entry posting line. Amounts are decimals and always
// non-negative; direction carries the sign.
type EntryLine struct {
	ID        snowflake.ID    `gorm:"primaryKey"`
	EntryID   snowflake.ID    `gorm:"not null;index"`
	AccountID snowflake.ID    `gorm:"not null;index"`
	Direction EntryDirection  `gorm:"type:text;not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (EntryLine) TableName() string { return "accounting_entry_lines" }

// Subscription marks an ISP as having the accounting add-on active.
type Subscription struct {
	ISPID       snowflake.ID `gorm:"primaryKey"`
	Active      bool         `gorm:"not null;default:true"`
	ActivatedAt time.Time    `gorm:"not null"`
	CanceledAt  *time.Time
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "accounting_subscriptions" }
