package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/clock"
	routerdomain "github.com/weperezh01/isp-core/internal/router/domain"
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

func NewService(p ServiceParam) routerdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("router.service"),

		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, ispID snowflake.ID, req routerdomain.UpsertRouterRequest) (routerdomain.Router, error) {
	if ispID == 0 {
		return routerdomain.Router{}, routerdomain.ErrInvalidISP
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return routerdomain.Router{}, routerdomain.ErrInvalidName
	}

	now := s.clock.Now()
	router := routerdomain.Router{
		ID:        s.genID.Generate(),
		ISPID:     ispID,
		Name:      name,
		Host:      strings.TrimSpace(req.Host),
		Brand:     strings.TrimSpace(req.Brand),
		Model:     strings.TrimSpace(req.Model),
		Status:    routerdomain.RouterOnline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&router).Error; err != nil {
		return routerdomain.Router{}, err
	}
	return router, nil
}

func (s *Service) GetByID(ctx context.Context, ispID, id snowflake.ID) (routerdomain.Router, error) {
	var router routerdomain.Router
	err := s.db.WithContext(ctx).First(&router, "id = ? AND isp_id = ?", id, ispID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return routerdomain.Router{}, routerdomain.ErrNotFound
		}
		return routerdomain.Router{}, err
	}
	return router, nil
}

func (s *Service) List(ctx context.Context, ispID snowflake.ID) ([]routerdomain.Router, error) {
	if ispID == 0 {
		return nil, routerdomain.ErrInvalidISP
	}
	var routers []routerdomain.Router
	err := s.db.WithContext(ctx).
		Where("isp_id = ?", ispID).
		Order("name ASC").
		Find(&routers).Error
	if err != nil {
		return nil, err
	}
	return routers, nil
}

func (s *Service) SetStatus(ctx context.Context, ispID, id snowflake.ID, status routerdomain.RouterStatus) error {
	switch status {
	case routerdomain.RouterOnline, routerdomain.RouterOffline, routerdomain.RouterMaintenance:
	default:
		return routerdomain.ErrInvalidStatus
	}
	res := s.db.WithContext(ctx).Exec(
		`UPDATE routers SET status = ?, updated_at = ? WHERE id = ? AND isp_id = ?`,
		status, s.clock.Now(), id, ispID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return routerdomain.ErrNotFound
	}
	return nil
}
