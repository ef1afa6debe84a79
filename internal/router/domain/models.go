// Package domain holds the network router model. Connections are provisioned
// against a router.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RouterStatus is the operational state reported for a router.
type RouterStatus string

const (
	RouterOnline      RouterStatus = "en_linea"
	RouterOffline     RouterStatus = "fuera_de_linea"
	RouterMaintenance RouterStatus = "mantenimiento"
)

// Router is a piece of head-end equipment owned by an ISP.
type Router struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id_router"`
	ISPID     snowflake.ID `gorm:"not null;index" json:"id_isp"`
	Name      string       `gorm:"type:text;not null" json:"nombre_router"`
	Host      string       `gorm:"type:text" json:"ip_router"`
	Brand     string       `gorm:"type:text" json:"marca"`
	Model     string       `gorm:"type:text" json:"modelo"`
	Status    RouterStatus `gorm:"type:text;not null;default:'en_linea'" json:"estado"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Router) TableName() string { return "routers" }
