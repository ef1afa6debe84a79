package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/events"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
}

func NewService(p ServiceParam) permissiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("permission.service"),

		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
	}
}

func (s *Service) Catalog(ctx context.Context) ([]permissiondomain.Permission, error) {
	var entries []permissiondomain.Permission
	err := s.db.WithContext(ctx).
		Order("id ASC, sub_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Service) ListForUser(ctx context.Context, ispID, userID snowflake.ID) ([]permissiondomain.UserPermission, error) {
	if ispID == 0 {
		return nil, permissiondomain.ErrInvalidISP
	}
	if userID == 0 {
		return nil, permissiondomain.ErrInvalidUser
	}
	var grants []permissiondomain.UserPermission
	err := s.db.WithContext(ctx).
		Where("isp_id = ? AND user_id = ?", ispID, userID).
		Order("permission_id ASC, sub_permission_id ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// Toggle is optimistic: the new value lands in the same write that marks the
// row pending, so readers see it before the backend sync completes.
func (s *Service) Toggle(ctx context.Context, ispID snowflake.ID, req permissiondomain.ToggleRequest) (permissiondomain.UserPermission, error) {
	if ispID == 0 {
		return permissiondomain.UserPermission{}, permissiondomain.ErrInvalidISP
	}
	if req.UserID == 0 {
		return permissiondomain.UserPermission{}, permissiondomain.ErrInvalidUser
	}

	var known int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM permissions WHERE id = ? AND sub_id = ?`,
		req.PermissionID, req.SubPermissionID,
	).Scan(&known).Error
	if err != nil {
		return permissiondomain.UserPermission{}, err
	}
	if known == 0 {
		return permissiondomain.UserPermission{}, permissiondomain.ErrUnknownPermission
	}

	now := s.clock.Now()
	grant := permissiondomain.UserPermission{
		ID:              s.genID.Generate(),
		ISPID:           ispID,
		UserID:          req.UserID,
		PermissionID:    req.PermissionID,
		SubPermissionID: req.SubPermissionID,
		Enabled:         req.Enabled,
		SyncStatus:      permissiondomain.SyncPending,
		ToggledAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-toggling resets attempts so a previously failed grant gets a
		// fresh round of retries with the new value.
		if err := tx.Exec(
			`INSERT INTO user_permissions
			 (id, isp_id, user_id, permission_id, sub_permission_id, enabled, sync_status, sync_attempts, last_error, toggled_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0, '', ?, ?, ?)
			 ON CONFLICT (isp_id, user_id, permission_id, sub_permission_id) DO UPDATE SET
			   enabled = excluded.enabled,
			   sync_status = excluded.sync_status,
			   sync_attempts = 0,
			   last_error = '',
			   toggled_at = excluded.toggled_at,
			   updated_at = excluded.updated_at`,
			grant.ID, grant.ISPID, grant.UserID,
			grant.PermissionID, grant.SubPermissionID,
			grant.Enabled, grant.SyncStatus,
			grant.ToggledAt, grant.CreatedAt, grant.UpdatedAt,
		).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			ISPID: ispID,
			Type:  events.EventPermissionUpdated,
			Payload: events.PermissionPayload{
				UserID:          req.UserID.String(),
				PermissionID:    req.PermissionID,
				SubPermissionID: req.SubPermissionID,
				Enabled:         req.Enabled,
			}.ToMap(),
		})
	})
	if err != nil {
		return permissiondomain.UserPermission{}, err
	}

	s.log.Info("permission toggled",
		zap.String("user_id", req.UserID.String()),
		zap.Int64("permission_id", req.PermissionID),
		zap.Int64("sub_permission_id", req.SubPermissionID),
		zap.Bool("enabled", req.Enabled),
	)

	var stored permissiondomain.UserPermission
	err = s.db.WithContext(ctx).
		First(&stored,
			"isp_id = ? AND user_id = ? AND permission_id = ? AND sub_permission_id = ?",
			ispID, req.UserID, req.PermissionID, req.SubPermissionID,
		).Error
	if err != nil {
		return permissiondomain.UserPermission{}, err
	}
	return stored, nil
}

func (s *Service) HasPermission(ctx context.Context, ispID, userID snowflake.ID, permissionID, subPermissionID int64) (bool, error) {
	if ispID == 0 || userID == 0 {
		return false, nil
	}
	var enabled int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM user_permissions
		 WHERE isp_id = ? AND user_id = ? AND permission_id = ? AND sub_permission_id = ? AND enabled`,
		ispID, userID, permissionID, subPermissionID,
	).Scan(&enabled).Error
	if err != nil {
		return false, err
	}
	return enabled > 0, nil
}
