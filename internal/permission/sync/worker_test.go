package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/events"
	"github.com/weperezh01/isp-core/internal/observability/metrics"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

type stubSyncer struct {
	err   error
	calls int
}

func (s *stubSyncer) Sync(context.Context, permissiondomain.UserPermission) error {
	s.calls++
	return s.err
}

func newSyncWorker(t *testing.T, syncer Syncer) (*Worker, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS user_permissions (
			id BIGINT PRIMARY KEY,
			isp_id BIGINT NOT NULL, user_id BIGINT NOT NULL,
			permission_id BIGINT NOT NULL, sub_permission_id BIGINT NOT NULL DEFAULT 0,
			enabled BOOLEAN NOT NULL DEFAULT 0,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			sync_attempts INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			toggled_at DATETIME NOT NULL,
			synced_at DATETIME,
			created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
			UNIQUE (isp_id, user_id, permission_id, sub_permission_id)
		)`,
		`CREATE TABLE IF NOT EXISTS isp_events (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, event_type TEXT NOT NULL,
			payload TEXT NOT NULL, dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT 0, created_at DATETIME NOT NULL,
			UNIQUE (isp_id, dedupe_key)
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	metrics.ResetSyncMetricsForTest()
	worker := &Worker{
		db:      db,
		log:     zap.NewNop(),
		clock:   &stubClock{now: time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)},
		syncer:  syncer,
		outbox:  events.NewOutbox(db, node),
		metrics: nil, // nil-safe metrics keep tests off the global registry
		cfg:     Config{BatchSize: 10, PollInterval: time.Second, MaxAttempts: 2}.withDefaults(),
	}
	return worker, db, node
}

func insertGrant(t *testing.T, db *gorm.DB, node *snowflake.Node, status string, attempts int, toggledAt time.Time) snowflake.ID {
	t.Helper()
	id := node.Generate()
	err := db.Exec(
		`INSERT INTO user_permissions
		 (id, isp_id, user_id, permission_id, sub_permission_id, enabled, sync_status, sync_attempts, last_error, toggled_at, created_at, updated_at)
		 VALUES (?, ?, ?, 4, 0, 1, ?, ?, '', ?, ?, ?)`,
		id, node.Generate(), node.Generate(), status, attempts, toggledAt, toggledAt, toggledAt,
	).Error
	if err != nil {
		t.Fatalf("insert grant: %v", err)
	}
	return id
}

func grantStatus(t *testing.T, db *gorm.DB, id snowflake.ID) (string, int, bool) {
	t.Helper()
	var row struct {
		SyncStatus   string
		SyncAttempts int
		Enabled      bool
	}
	err := db.Raw(
		`SELECT sync_status, sync_attempts, enabled FROM user_permissions WHERE id = ?`, id,
	).Scan(&row).Error
	if err != nil {
		t.Fatalf("read grant: %v", err)
	}
	return row.SyncStatus, row.SyncAttempts, row.Enabled
}

func TestRunOnceSyncsPendingRows(t *testing.T) {
	syncer := &stubSyncer{}
	worker, db, node := newSyncWorker(t, syncer)

	id := insertGrant(t, db, node, "pending", 0, time.Date(2025, 8, 2, 11, 59, 0, 0, time.UTC))

	if err := worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if syncer.calls != 1 {
		t.Fatalf("syncer calls = %d, want 1", syncer.calls)
	}

	status, _, enabled := grantStatus(t, db, id)
	if status != "synced" {
		t.Fatalf("status = %s, want synced", status)
	}
	if !enabled {
		t.Fatalf("optimistic value must survive the sync")
	}
}

func TestRunOnceKeepsOptimisticValueOnFailure(t *testing.T) {
	syncer := &stubSyncer{err: errors.New("backend unavailable")}
	worker, db, node := newSyncWorker(t, syncer)

	id := insertGrant(t, db, node, "pending", 0, time.Date(2025, 8, 2, 11, 59, 0, 0, time.UTC))

	if err := worker.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	status, attempts, enabled := grantStatus(t, db, id)
	if status != "failed" {
		t.Fatalf("status = %s, want failed", status)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if !enabled {
		t.Fatalf("failed sync must keep the optimistic value")
	}
}

func TestFailedRowsAreRetriedUntilMaxAttempts(t *testing.T) {
	syncer := &stubSyncer{err: errors.New("still down")}
	worker, db, node := newSyncWorker(t, syncer)

	id := insertGrant(t, db, node, "pending", 0, time.Date(2025, 8, 2, 11, 59, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if err := worker.RunOnce(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	// MaxAttempts is 2: first run fails it, second retries, third skips.
	if syncer.calls != 2 {
		t.Fatalf("syncer calls = %d, want 2", syncer.calls)
	}
	_, attempts, _ := grantStatus(t, db, id)
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}

	var failureEvents int64
	err := db.Raw(
		`SELECT COUNT(1) FROM isp_events WHERE event_type = ?`, events.EventPermissionSyncFailed,
	).Scan(&failureEvents).Error
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if failureEvents != 1 {
		t.Fatalf("failure events = %d, want 1", failureEvents)
	}
}

func TestSyncSkipsRowsRetoggledMidFlight(t *testing.T) {
	syncer := &stubSyncer{}
	worker, db, node := newSyncWorker(t, syncer)

	toggled := time.Date(2025, 8, 2, 11, 59, 0, 0, time.UTC)
	id := insertGrant(t, db, node, "pending", 0, toggled)

	// A newer toggle lands after the worker read its batch.
	row := permissiondomain.UserPermission{ID: id, ToggledAt: toggled}
	err := db.Exec(
		`UPDATE user_permissions SET toggled_at = ?, enabled = 0 WHERE id = ?`,
		toggled.Add(time.Second), id,
	).Error
	if err != nil {
		t.Fatalf("re-toggle: %v", err)
	}

	if err := worker.syncRow(context.Background(), row); err != nil {
		t.Fatalf("sync row: %v", err)
	}

	status, _, enabled := grantStatus(t, db, id)
	if status != "pending" {
		t.Fatalf("status = %s, want pending (newer toggle wins)", status)
	}
	if enabled {
		t.Fatalf("newer toggle's value must stand")
	}
}
