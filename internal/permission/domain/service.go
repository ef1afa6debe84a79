package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// ToggleRequest flips one grant. SubPermissionID zero toggles the parent.
type ToggleRequest struct {
	UserID          snowflake.ID `json:"id_usuario"`
	PermissionID    int64        `json:"id_permiso"`
	SubPermissionID int64        `json:"id_subpermiso"`
	Enabled         bool         `json:"habilitado"`
}

// Service manages the catalog and per-user grants.
type Service interface {
	Catalog(ctx context.Context) ([]Permission, error)
	ListForUser(ctx context.Context, ispID, userID snowflake.ID) ([]UserPermission, error)
	// Toggle applies the new value immediately and marks the row pending
	// for the reconciler. The returned grant carries the optimistic value.
	Toggle(ctx context.Context, ispID snowflake.ID, req ToggleRequest) (UserPermission, error)
	// HasPermission reports the effective (optimistic) value of a grant.
	HasPermission(ctx context.Context, ispID, userID snowflake.ID, permissionID, subPermissionID int64) (bool, error)
}

var (
	ErrInvalidISP        = errors.New("invalid_isp")
	ErrInvalidUser       = errors.New("invalid_user")
	ErrUnknownPermission = errors.New("unknown_permission")
	ErrGrantNotFound     = errors.New("grant_not_found")
)
