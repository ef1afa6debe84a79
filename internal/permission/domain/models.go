// Package domain holds the permission catalog and per-user grants. Toggles
// apply optimistically; a reconciler confirms them against the provisioning
// backend afterwards.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SyncStatus is the reconciliation state of a grant. A failed grant keeps its
// optimistic value and stays eligible for retry.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncPending SyncStatus = "pending"
	SyncFailed  SyncStatus = "failed"
)

// Permission is a catalog entry. SubID zero is the parent permission; nonzero
// SubIDs are its children and only make sense with the parent enabled.
type Permission struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false" json:"id_permiso"`
	SubID       int64  `gorm:"primaryKey;autoIncrement:false;default:0" json:"id_subpermiso"`
	Code        string `gorm:"type:text;not null" json:"codigo"`
	Name        string `gorm:"type:text;not null" json:"nombre"`
	Description string `gorm:"type:text" json:"descripcion"`
	Advanced    bool   `gorm:"not null;default:false" json:"avanzado"`
}

// TableName sets the database table name.
func (Permission) TableName() string { return "permissions" }

// IsParent reports whether the entry is a top-level permission.
func (p Permission) IsParent() bool { return p.SubID == 0 }

// UserPermission is one grant of a catalog entry to a user inside an ISP.
type UserPermission struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	ISPID           snowflake.ID `gorm:"not null;index;uniqueIndex:ux_user_permissions,priority:1" json:"id_isp"`
	UserID          snowflake.ID `gorm:"not null;index;uniqueIndex:ux_user_permissions,priority:2" json:"id_usuario"`
	PermissionID    int64        `gorm:"not null;uniqueIndex:ux_user_permissions,priority:3" json:"id_permiso"`
	SubPermissionID int64        `gorm:"not null;default:0;uniqueIndex:ux_user_permissions,priority:4" json:"id_subpermiso"`
	Enabled         bool         `gorm:"not null;default:false" json:"habilitado"`
	SyncStatus      SyncStatus   `gorm:"type:text;not null;default:'pending';index" json:"estado_sync"`
	SyncAttempts    int          `gorm:"not null;default:0" json:"-"`
	LastError       string       `gorm:"type:text" json:"-"`
	ToggledAt       time.Time    `gorm:"not null" json:"-"`
	SyncedAt        *time.Time   `json:"-"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (UserPermission) TableName() string { return "user_permissions" }
