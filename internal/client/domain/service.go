package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// UpsertClientRequest carries the writable fields of a subscriber.
type UpsertClientRequest struct {
	FirstName string `json:"nombres"`
	LastName  string `json:"apellidos"`
	Cedula    string `json:"cedula"`
	RNC       string `json:"rnc"`
	Phone     string `json:"telefono1"`
	Phone2    string `json:"telefono2"`
	Email     string `json:"correo_elect"`
	Address   string `json:"direccion"`
}

// Service manages subscribers inside one ISP.
type Service interface {
	Create(ctx context.Context, ispID snowflake.ID, req UpsertClientRequest) (Client, error)
	Update(ctx context.Context, ispID, id snowflake.ID, req UpsertClientRequest) (Client, error)
	GetByID(ctx context.Context, ispID, id snowflake.ID) (Client, error)
	List(ctx context.Context, ispID snowflake.ID) ([]Client, error)
	SetStatus(ctx context.Context, ispID, id snowflake.ID, status ClientStatus) error
}

var (
	ErrInvalidName   = errors.New("invalid_client_name")
	ErrInvalidISP    = errors.New("invalid_isp")
	ErrInvalidStatus = errors.New("invalid_client_status")
	ErrNotFound      = errors.New("client_not_found")
)
