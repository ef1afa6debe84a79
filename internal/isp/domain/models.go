// Package domain contains the ISP tenant model. Every business entity in the
// back office is scoped to one ISP.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MemberRole is the role a user holds inside an ISP.
type MemberRole string

const (
	RoleOwner    MemberRole = "OWNER"
	RoleAdmin    MemberRole = "ADMIN"
	RoleOperator MemberRole = "OPERATOR"
)

// ISP is a tenant: the provider whose clients, connections and billing the
// back office manages.
type ISP struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"nombre"`
	RNC       string       `gorm:"type:text" json:"rnc"`
	Address   string       `gorm:"type:text" json:"direccion"`
	Phone     string       `gorm:"type:text" json:"telefono"`
	IsDefault bool         `gorm:"not null;default:false" json:"-"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (ISP) TableName() string { return "isps" }

// Member links a user to an ISP with a role.
type Member struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ISPID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_isp_members,priority:1" json:"id_isp"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_isp_members,priority:2" json:"id_usuario"`
	Role      MemberRole   `gorm:"type:text;not null" json:"rol"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "isp_members" }
