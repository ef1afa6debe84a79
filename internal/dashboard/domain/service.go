package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service exposes the admin overview data.
type Service interface {
	Overview(ctx context.Context, ispID snowflake.ID) (Overview, error)
	ListCycleSummaries(ctx context.Context, ispID snowflake.ID) (CycleSummaryResponse, error)
	ListActivity(ctx context.Context, ispID snowflake.ID, limit int) (ActivityResponse, error)
}

var ErrInvalidISP = errors.New("invalid_isp")
