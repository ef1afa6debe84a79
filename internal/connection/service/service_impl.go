package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	conndomain "github.com/weperezh01/isp-core/internal/connection/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Clients clientdomain.Service
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID   *snowflake.Node
	clock   clock.Clock
	clients clientdomain.Service
}

func NewService(p ServiceParam) conndomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("connection.service"),

		genID:   p.GenID,
		clock:   p.Clock,
		clients: p.Clients,
	}
}

func (s *Service) Create(ctx context.Context, ispID snowflake.ID, req conndomain.UpsertConnectionRequest) (conndomain.Connection, error) {
	if ispID == 0 {
		return conndomain.Connection{}, conndomain.ErrInvalidISP
	}
	if req.ClientID == 0 {
		return conndomain.Connection{}, conndomain.ErrInvalidClient
	}
	if _, err := s.clients.GetByID(ctx, ispID, req.ClientID); err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) {
			return conndomain.Connection{}, conndomain.ErrInvalidClient
		}
		return conndomain.Connection{}, err
	}

	fee := decimal.Zero
	if raw := strings.TrimSpace(req.MonthlyFee); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			return conndomain.Connection{}, conndomain.ErrInvalidFee
		}
		fee = parsed
	}

	now := s.clock.Now()
	conn := conndomain.Connection{
		ID:         s.genID.Generate(),
		ISPID:      ispID,
		ClientID:   req.ClientID,
		RouterID:   req.RouterID,
		Address:    strings.TrimSpace(req.Address),
		PlanName:   strings.TrimSpace(req.PlanName),
		SpeedMbps:  req.SpeedMbps,
		MonthlyFee: fee,
		Status:     conndomain.ConnectionActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&conn).Error; err != nil {
		return conndomain.Connection{}, err
	}

	s.log.Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("client_id", conn.ClientID.String()),
	)
	return conn, nil
}

func (s *Service) GetByID(ctx context.Context, ispID, id snowflake.ID) (conndomain.Connection, error) {
	var conn conndomain.Connection
	err := s.db.WithContext(ctx).First(&conn, "id = ? AND isp_id = ?", id, ispID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conndomain.Connection{}, conndomain.ErrNotFound
		}
		return conndomain.Connection{}, err
	}
	return conn, nil
}

func (s *Service) List(ctx context.Context, ispID snowflake.ID) ([]conndomain.Connection, error) {
	if ispID == 0 {
		return nil, conndomain.ErrInvalidISP
	}
	var conns []conndomain.Connection
	err := s.db.WithContext(ctx).
		Where("isp_id = ?", ispID).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *Service) ListByClient(ctx context.Context, ispID, clientID snowflake.ID) ([]conndomain.Connection, error) {
	if ispID == 0 {
		return nil, conndomain.ErrInvalidISP
	}
	if clientID == 0 {
		return nil, conndomain.ErrInvalidClient
	}
	var conns []conndomain.Connection
	err := s.db.WithContext(ctx).
		Where("isp_id = ? AND client_id = ?", ispID, clientID).
		Order("created_at DESC").
		Find(&conns).Error
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *Service) SetStatus(ctx context.Context, ispID, id snowflake.ID, status conndomain.ConnectionStatus) error {
	switch status {
	case conndomain.ConnectionActive, conndomain.ConnectionSuspended, conndomain.ConnectionCut:
	default:
		return conndomain.ErrInvalidStatus
	}
	res := s.db.WithContext(ctx).Exec(
		`UPDATE connections SET status = ?, updated_at = ? WHERE id = ? AND isp_id = ?`,
		status, s.clock.Now(), id, ispID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return conndomain.ErrNotFound
	}
	return nil
}
