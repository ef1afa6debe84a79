// Package domain holds users and their login sessions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserStatus marks whether an account may sign in.
type UserStatus string

const (
	UserActive   UserStatus = "activo"
	UserDisabled UserStatus = "inactivo"
)

// ViewMode is the operator's preferred permission screen layout.
type ViewMode string

const (
	ViewBasic    ViewMode = "basico"
	ViewAdvanced ViewMode = "avanzado"
)

// User is a back-office operator account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"type:text;not null;uniqueIndex" json:"usuario"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	FirstName    string       `gorm:"type:text" json:"nombre"`
	LastName     string       `gorm:"type:text" json:"apellido"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Status       UserStatus   `gorm:"type:text;not null;default:'activo'" json:"estado"`
	ViewMode     ViewMode     `gorm:"type:text;not null;default:'basico'" json:"modo_vista"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// FullName joins first and last name for display.
func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Session is a server-side login session. Only the SHA-256 of the bearer
// token is stored.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"id_usuario"`
	TokenHash string       `gorm:"type:text;not null;uniqueIndex" json:"-"`
	ISPID     snowflake.ID `gorm:"index" json:"id_isp"`
	IP        string       `gorm:"type:text" json:"-"`
	UserAgent string       `gorm:"type:text" json:"-"`
	ExpiresAt time.Time    `gorm:"not null;index" json:"expira"`
	RevokedAt *time.Time   `json:"-"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Expired reports whether the session is past its deadline or revoked.
func (s Session) Expired(now time.Time) bool {
	return s.RevokedAt != nil || !now.Before(s.ExpiresAt)
}
