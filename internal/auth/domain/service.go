package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// RegisterRequest carries the fields accepted when creating an operator.
type RegisterRequest struct {
	Username  string `json:"usuario"`
	Email     string `json:"email"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellido"`
	Password  string `json:"clave"`
}

// LoginRequest is a sign-in attempt.
type LoginRequest struct {
	Username  string `json:"usuario"`
	Password  string `json:"clave"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResult is returned on a successful sign-in. Token is the plaintext
// bearer token, shown exactly once.
type LoginResult struct {
	Token   string  `json:"token"`
	User    User    `json:"usuario"`
	Session Session `json:"sesion"`
}

// Service manages operator accounts and their sessions.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (User, error)
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (User, Session, error)
	SelectISP(ctx context.Context, token string, ispID snowflake.ID) error
	GetUser(ctx context.Context, id snowflake.ID) (User, error)
	ListUsers(ctx context.Context, ispID snowflake.ID) ([]User, error)
	UpdateViewMode(ctx context.Context, userID snowflake.ID, mode ViewMode) error
}

var (
	ErrInvalidUsername    = errors.New("invalid_username")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrWeakPassword       = errors.New("weak_password")
	ErrUserExists         = errors.New("user_already_exists")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrUserDisabled       = errors.New("user_disabled")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidSession     = errors.New("invalid_session")
	ErrSessionExpired     = errors.New("session_expired")
	ErrInvalidViewMode    = errors.New("invalid_view_mode")
)
