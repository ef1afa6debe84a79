package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p ServiceParam) clientdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("client.service"),

		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, ispID snowflake.ID, req clientdomain.UpsertClientRequest) (clientdomain.Client, error) {
	if ispID == 0 {
		return clientdomain.Client{}, clientdomain.ErrInvalidISP
	}
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return clientdomain.Client{}, clientdomain.ErrInvalidName
	}

	now := s.clock.Now()
	client := clientdomain.Client{
		ID:        s.genID.Generate(),
		ISPID:     ispID,
		FirstName: firstName,
		LastName:  strings.TrimSpace(req.LastName),
		Cedula:    strings.TrimSpace(req.Cedula),
		RNC:       strings.TrimSpace(req.RNC),
		Phone:     strings.TrimSpace(req.Phone),
		Phone2:    strings.TrimSpace(req.Phone2),
		Email:     strings.TrimSpace(req.Email),
		Address:   strings.TrimSpace(req.Address),
		Status:    clientdomain.ClientActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&client).Error; err != nil {
		return clientdomain.Client{}, err
	}

	s.log.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("isp_id", ispID.String()),
	)
	return client, nil
}

func (s *Service) Update(ctx context.Context, ispID, id snowflake.ID, req clientdomain.UpsertClientRequest) (clientdomain.Client, error) {
	client, err := s.GetByID(ctx, ispID, id)
	if err != nil {
		return clientdomain.Client{}, err
	}
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return clientdomain.Client{}, clientdomain.ErrInvalidName
	}

	client.FirstName = firstName
	client.LastName = strings.TrimSpace(req.LastName)
	client.Cedula = strings.TrimSpace(req.Cedula)
	client.RNC = strings.TrimSpace(req.RNC)
	client.Phone = strings.TrimSpace(req.Phone)
	client.Phone2 = strings.TrimSpace(req.Phone2)
	client.Email = strings.TrimSpace(req.Email)
	client.Address = strings.TrimSpace(req.Address)
	client.UpdatedAt = s.clock.Now()

	if err := s.db.WithContext(ctx).Save(&client).Error; err != nil {
		return clientdomain.Client{}, err
	}
	return client, nil
}

func (s *Service) GetByID(ctx context.Context, ispID, id snowflake.ID) (clientdomain.Client, error) {
	var client clientdomain.Client
	err := s.db.WithContext(ctx).First(&client, "id = ? AND isp_id = ?", id, ispID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return clientdomain.Client{}, clientdomain.ErrNotFound
		}
		return clientdomain.Client{}, err
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, ispID snowflake.ID) ([]clientdomain.Client, error) {
	if ispID == 0 {
		return nil, clientdomain.ErrInvalidISP
	}
	var clients []clientdomain.Client
	err := s.db.WithContext(ctx).
		Where("isp_id = ?", ispID).
		Order("first_name ASC, last_name ASC").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Service) SetStatus(ctx context.Context, ispID, id snowflake.ID, status clientdomain.ClientStatus) error {
	switch status {
	case clientdomain.ClientActive, clientdomain.ClientSuspended, clientdomain.ClientRetired:
	default:
		return clientdomain.ErrInvalidStatus
	}
	res := s.db.WithContext(ctx).Exec(
		`UPDATE clients SET status = ?, updated_at = ? WHERE id = ? AND isp_id = ?`,
		status, s.clock.Now(), id, ispID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return clientdomain.ErrNotFound
	}
	return nil
}
