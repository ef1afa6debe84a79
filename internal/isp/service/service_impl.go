package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
}

func NewService(p ServiceParam) ispdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("isp.service"),

		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, ownerID snowflake.ID, req ispdomain.CreateISPRequest) (ispdomain.ISP, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ispdomain.ISP{}, ispdomain.ErrInvalidName
	}
	if ownerID == 0 {
		return ispdomain.ISP{}, ispdomain.ErrInvalidUser
	}

	now := time.Now().UTC()
	isp := ispdomain.ISP{
		ID:        s.genID.Generate(),
		Name:      name,
		RNC:       strings.TrimSpace(req.RNC),
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&isp).Error; err != nil {
			return err
		}
		member := ispdomain.Member{
			ID:        s.genID.Generate(),
			ISPID:     isp.ID,
			UserID:    ownerID,
			Role:      ispdomain.RoleOwner,
			CreatedAt: now,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return ispdomain.ISP{}, err
	}
	return isp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (ispdomain.ISP, error) {
	ispID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || ispID == 0 {
		return ispdomain.ISP{}, ispdomain.ErrInvalidID
	}

	var isp ispdomain.ISP
	err = s.db.WithContext(ctx).First(&isp, "id = ?", ispID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ispdomain.ISP{}, ispdomain.ErrNotFound
		}
		return ispdomain.ISP{}, err
	}
	return isp, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]ispdomain.ISP, error) {
	if userID == 0 {
		return nil, ispdomain.ErrInvalidUser
	}

	var isps []ispdomain.ISP
	err := s.db.WithContext(ctx).Raw(
		`SELECT i.*
		 FROM isps i
		 JOIN isp_members m ON m.isp_id = i.id
		 WHERE m.user_id = ?
		 ORDER BY i.name ASC`,
		userID,
	).Scan(&isps).Error
	if err != nil {
		return nil, err
	}
	return isps, nil
}

func (s *Service) IsMember(ctx context.Context, ispID, userID snowflake.ID) (bool, error) {
	if ispID == 0 || userID == 0 {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM isp_members WHERE isp_id = ? AND user_id = ?`,
		ispID,
		userID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) AddMember(ctx context.Context, ispID, userID snowflake.ID, role ispdomain.MemberRole) error {
	if ispID == 0 {
		return ispdomain.ErrInvalidID
	}
	if userID == 0 {
		return ispdomain.ErrInvalidUser
	}
	switch role {
	case ispdomain.RoleOwner, ispdomain.RoleAdmin, ispdomain.RoleOperator:
	default:
		return ispdomain.ErrInvalidRole
	}

	member := ispdomain.Member{
		ID:        s.genID.Generate(),
		ISPID:     ispID,
		UserID:    userID,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO isp_members (id, isp_id, user_id, role, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (isp_id, user_id) DO NOTHING`,
		member.ID,
		member.ISPID,
		member.UserID,
		member.Role,
		member.CreatedAt,
	).Error
}
