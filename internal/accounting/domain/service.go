package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service writes balanced entries for ISPs subscribed to the add-on.
type Service interface {
	// Subscribe activates the add-on and seeds the chart of accounts.
	Subscribe(ctx context.Context, ispID snowflake.ID) error
	Unsubscribe(ctx context.Context, ispID snowflake.ID) error
	IsActive(ctx context.Context, ispID snowflake.ID) (bool, error)
	// CreateEntry posts a balanced entry. Lines reference account codes,
	// not IDs; the service resolves them per ISP.
	CreateEntry(ctx context.Context, ispID snowflake.ID, sourceType string, sourceID snowflake.ID, occurredAt time.Time, lines []LinePosting) error
	ListEntries(ctx context.Context, ispID snowflake.ID, limit int) ([]Entry, error)
}

// LinePosting is a caller-facing posting line keyed by account code. Amount
// is a decimal string.
type LinePosting struct {
	AccountCode string
	Direction   EntryDirection
	Amount      string
}

var (
	ErrInvalidISP           = errors.New("invalid_isp")
	ErrNotSubscribed        = errors.New("accounting_not_subscribed")
	ErrInvalidSourceType    = errors.New("invalid_source_type")
	ErrInvalidSourceID      = errors.New("invalid_source_id")
	ErrInvalidOccurredAt    = errors.New("invalid_occurred_at")
	ErrInvalidEntryLines    = errors.New("invalid_entry_lines")
	ErrInvalidLineAmount    = errors.New("invalid_line_amount")
	ErrInvalidLineDirection = errors.New("invalid_line_direction")
	ErrInvalidAccount       = errors.New("invalid_account")
	ErrUnbalancedEntry      = errors.New("unbalanced_entry")
)
