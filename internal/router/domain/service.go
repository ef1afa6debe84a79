package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// UpsertRouterRequest carries the writable fields of a router.
type UpsertRouterRequest struct {
	Name  string `json:"nombre_router"`
	Host  string `json:"ip_router"`
	Brand string `json:"marca"`
	Model string `json:"modelo"`
}

// Service manages routers inside one ISP.
type Service interface {
	Create(ctx context.Context, ispID snowflake.ID, req UpsertRouterRequest) (Router, error)
	GetByID(ctx context.Context, ispID, id snowflake.ID) (Router, error)
	List(ctx context.Context, ispID snowflake.ID) ([]Router, error)
	SetStatus(ctx context.Context, ispID, id snowflake.ID, status RouterStatus) error
}

var (
	ErrInvalidName   = errors.New("invalid_router_name")
	ErrInvalidISP    = errors.New("invalid_isp")
	ErrInvalidStatus = errors.New("invalid_router_status")
	ErrNotFound      = errors.New("router_not_found")
)
