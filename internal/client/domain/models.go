// Package domain holds the subscriber (cliente) model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ClientStatus tracks the commercial state of a subscriber.
type ClientStatus string

const (
	ClientActive    ClientStatus = "activo"
	ClientSuspended ClientStatus = "suspendido"
	ClientRetired   ClientStatus = "retirado"
)

// Client is a subscriber of an ISP. Invoices and connections hang off it.
type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id_cliente"`
	ISPID     snowflake.ID `gorm:"not null;index" json:"id_isp"`
	FirstName string       `gorm:"type:text;not null" json:"nombres"`
	LastName  string       `gorm:"type:text" json:"apellidos"`
	Cedula    string       `gorm:"type:text" json:"cedula"`
	RNC       string       `gorm:"type:text" json:"rnc"`
	Phone     string       `gorm:"type:text" json:"telefono1"`
	Phone2    string       `gorm:"type:text" json:"telefono2"`
	Email     string       `gorm:"type:text" json:"correo_elect"`
	Address   string       `gorm:"type:text" json:"direccion"`
	Status    ClientStatus `gorm:"type:text;not null;default:'activo'" json:"estado"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Client) TableName() string { return "clients" }

// FullName joins the name parts for display and search.
func (c Client) FullName() string {
	if c.FirstName == "" {
		return c.LastName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
