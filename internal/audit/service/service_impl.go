package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/weperezh01/isp-core/internal/audit/domain"
	"github.com/weperezh01/isp-core/internal/auditcontext"
	"github.com/weperezh01/isp-core/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is the caller-facing shape of an audit record.
type Entry struct {
	ISPID      snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service records operator actions. Recording is best effort: a failed write
// is logged and never propagated to the caller.
type Service interface {
	Record(ctx context.Context, entry Entry)
	// RecordNavigation stores one screen visit for the usage report.
	RecordNavigation(ctx context.Context, ispID snowflake.ID, screen string)
	List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error)
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type ServiceImpl struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p ServiceParam) Service {
	return &ServiceImpl{
		db:  p.DB,
		log: p.Log.Named("audit.service"),

		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *ServiceImpl) Record(ctx context.Context, entry Entry) {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return
	}

	actorType, actorID := auditcontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeSystem)
	}

	record := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		Action:     action,
		TargetType: strings.TrimSpace(entry.TargetType),
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  s.clock.Now(),
	}
	if entry.ISPID != 0 {
		ispID := entry.ISPID
		record.ISPID = &ispID
	}
	if actorID != "" {
		record.ActorID = &actorID
	}
	if target := strings.TrimSpace(entry.TargetID); target != "" {
		record.TargetID = &target
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		record.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		record.UserAgent = &ua
	}
	for key, value := range entry.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		record.Metadata[key] = value
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		record.Metadata["request_id"] = requestID
	}

	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		s.log.Warn("audit record not stored",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *ServiceImpl) RecordNavigation(ctx context.Context, ispID snowflake.ID, screen string) {
	screen = strings.TrimSpace(screen)
	if screen == "" {
		return
	}
	s.Record(ctx, Entry{
		ISPID:      ispID,
		Action:     auditdomain.ActionNavigation,
		TargetType: "screen",
		TargetID:   screen,
	})
}

func (s *ServiceImpl) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
