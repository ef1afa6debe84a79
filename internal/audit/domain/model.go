package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeUser   ActorType = "user"
	ActorTypeSystem ActorType = "system"
)

// Well-known audit actions. Navigation events feed the screen usage report.
const (
	ActionNavigation       = "navigation.screen"
	ActionLogin            = "auth.login"
	ActionLogout           = "auth.logout"
	ActionInvoiceEmit      = "invoice.emit"
	ActionInvoiceVoid      = "invoice.void"
	ActionPermissionToggle = "permission.toggle"
)

// AuditLog captures an immutable record of an operator action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ISPID      *snowflake.ID     `gorm:"index"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	IPAddress  *string           `gorm:"type:text"`
	UserAgent  *string           `gorm:"type:text"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
