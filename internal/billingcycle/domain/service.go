package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service manages monthly billing cycles per ISP.
type Service interface {
	// Open returns the cycle for the given month, creating it when absent.
	Open(ctx context.Context, ispID snowflake.ID, year int, month time.Month) (BillingCycle, error)
	// Current returns the open cycle covering ts, creating the month's
	// cycle when none exists yet.
	Current(ctx context.Context, ispID snowflake.ID, ts time.Time) (BillingCycle, error)
	GetByID(ctx context.Context, ispID, id snowflake.ID) (BillingCycle, error)
	List(ctx context.Context, ispID snowflake.ID) ([]BillingCycle, error)
	// Close transitions OPEN -> CLOSING -> CLOSED. Closing an already
	// closed cycle is an error.
	Close(ctx context.Context, ispID, id snowflake.ID) (BillingCycle, error)
}

var (
	ErrInvalidISP    = errors.New("invalid_isp")
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrNotFound      = errors.New("billing_cycle_not_found")
	ErrAlreadyClosed = errors.New("billing_cycle_already_closed")
)
