package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// UpsertConnectionRequest carries the writable fields of a connection.
// MonthlyFee is a decimal string, never a float.
type UpsertConnectionRequest struct {
	ClientID   snowflake.ID  `json:"id_cliente"`
	RouterID   *snowflake.ID `json:"id_router,omitempty"`
	Address    string        `json:"direccion"`
	PlanName   string        `json:"plan"`
	SpeedMbps  int           `json:"velocidad_mbps"`
	MonthlyFee string        `json:"precio_mensual"`
}

// Service manages connections inside one ISP.
type Service interface {
	Create(ctx context.Context, ispID snowflake.ID, req UpsertConnectionRequest) (Connection, error)
	GetByID(ctx context.Context, ispID, id snowflake.ID) (Connection, error)
	List(ctx context.Context, ispID snowflake.ID) ([]Connection, error)
	ListByClient(ctx context.Context, ispID, clientID snowflake.ID) ([]Connection, error)
	SetStatus(ctx context.Context, ispID, id snowflake.ID, status ConnectionStatus) error
}

var (
	ErrInvalidISP    = errors.New("invalid_isp")
	ErrInvalidClient = errors.New("invalid_client")
	ErrInvalidFee    = errors.New("invalid_monthly_fee")
	ErrInvalidStatus = errors.New("invalid_connection_status")
	ErrNotFound      = errors.New("connection_not_found")
)
