package sync

import (
	"context"
	"errors"
	"time"

	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/events"
	"github.com/weperezh01/isp-core/internal/observability/metrics"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Syncer  Syncer
	Outbox  *events.Outbox
	Metrics *metrics.SyncMetrics
	Config  Config `optional:"true"`
}

// Worker reconciles optimistic permission toggles with the provisioning
// backend. Failed rows keep their optimistic value and are retried until
// MaxAttempts, then parked as failed.
type Worker struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	syncer  Syncer
	outbox  *events.Outbox
	metrics *metrics.SyncMetrics
	cfg     Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:      p.DB,
		log:     p.Log.Named("permission.sync"),
		clock:   p.Clock,
		syncer:  p.Syncer,
		outbox:  p.Outbox,
		metrics: p.Metrics,
		cfg:     p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("permission sync run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(ctx context.Context) error {
	if w.db == nil || w.syncer == nil {
		return errors.New("sync_worker_unavailable")
	}

	_, err := w.processBatch(ctx, w.cfg.BatchSize)
	w.reportBacklog(ctx)
	return err
}

func (w *Worker) processBatch(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = w.cfg.BatchSize
	}

	var rows []permissiondomain.UserPermission
	err := w.db.WithContext(ctx).
		Where("sync_status = ? OR (sync_status = ? AND sync_attempts < ?)",
			permissiondomain.SyncPending, permissiondomain.SyncFailed, w.cfg.MaxAttempts).
		Order("toggled_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if err := w.syncRow(ctx, row); err != nil {
			w.log.Warn("permission sync row failed",
				zap.String("user_id", row.UserID.String()),
				zap.Int64("permission_id", row.PermissionID),
				zap.Error(err),
			)
		}
		processed++
	}
	return processed, nil
}

func (w *Worker) syncRow(ctx context.Context, row permissiondomain.UserPermission) error {
	now := w.clock.Now()
	lag := now.Sub(row.ToggledAt)

	syncErr := w.syncer.Sync(ctx, row)
	if syncErr == nil {
		// Guard on toggled_at so a toggle that raced in after our read is
		// not confirmed with the old value.
		res := w.db.WithContext(ctx).Exec(
			`UPDATE user_permissions
			 SET sync_status = ?, synced_at = ?, last_error = '', updated_at = ?
			 WHERE id = ? AND toggled_at = ?`,
			permissiondomain.SyncSynced, now, now,
			row.ID, row.ToggledAt,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			w.metrics.ObserveSyncLag("synced", lag)
			w.metrics.IncProcessed("synced")
		}
		return nil
	}

	attempts := row.SyncAttempts + 1
	res := w.db.WithContext(ctx).Exec(
		`UPDATE user_permissions
		 SET sync_status = ?, sync_attempts = ?, last_error = ?, updated_at = ?
		 WHERE id = ? AND toggled_at = ?`,
		permissiondomain.SyncFailed, attempts, syncErr.Error(), now,
		row.ID, row.ToggledAt,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	w.metrics.ObserveSyncLag("failed", lag)
	w.metrics.IncProcessed("failed")

	if attempts >= w.cfg.MaxAttempts {
		if err := w.outbox.Publish(ctx, events.Event{
			ISPID: row.ISPID,
			Type:  events.EventPermissionSyncFailed,
			Payload: events.PermissionPayload{
				UserID:          row.UserID.String(),
				PermissionID:    row.PermissionID,
				SubPermissionID: row.SubPermissionID,
				Enabled:         row.Enabled,
			}.ToMap(),
			DedupeKey: "permission.sync_failed:" + row.ID.String(),
		}); err != nil {
			w.log.Warn("permission sync failure event not stored", zap.Error(err))
		}
	}
	return syncErr
}

func (w *Worker) reportBacklog(ctx context.Context) {
	type statusRow struct {
		SyncStatus string
		Total      int
		Oldest     *time.Time
	}
	var rows []statusRow
	err := w.db.WithContext(ctx).Raw(
		`SELECT sync_status, COUNT(1) AS total, MIN(toggled_at) AS oldest
		 FROM user_permissions
		 WHERE sync_status IN (?, ?)
		 GROUP BY sync_status`,
		permissiondomain.SyncPending, permissiondomain.SyncFailed,
	).Scan(&rows).Error
	if err != nil {
		w.log.Warn("permission sync backlog query failed", zap.Error(err))
		return
	}

	now := w.clock.Now()
	seen := map[string]bool{}
	for _, row := range rows {
		seen[row.SyncStatus] = true
		w.metrics.SetBacklog(row.SyncStatus, row.Total)
		if row.Oldest != nil {
			w.metrics.SetOldest(row.SyncStatus, now.Sub(*row.Oldest))
		}
	}
	for _, status := range []string{string(permissiondomain.SyncPending), string(permissiondomain.SyncFailed)} {
		if !seen[status] {
			w.metrics.SetBacklog(status, 0)
			w.metrics.SetOldest(status, 0)
		}
	}
}
