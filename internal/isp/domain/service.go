package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// CreateISPRequest carries the fields accepted when registering a tenant.
type CreateISPRequest struct {
	Name    string
	RNC     string
	Address string
	Phone   string
}

// Service manages ISP tenants and their memberships.
type Service interface {
	Create(ctx context.Context, ownerID snowflake.ID, req CreateISPRequest) (ISP, error)
	GetByID(ctx context.Context, id string) (ISP, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]ISP, error)
	IsMember(ctx context.Context, ispID, userID snowflake.ID) (bool, error)
	AddMember(ctx context.Context, ispID, userID snowflake.ID, role MemberRole) error
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidID   = errors.New("invalid_isp_id")
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidRole = errors.New("invalid_role")
	ErrNotFound    = errors.New("isp_not_found")
)
