package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/events"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func newPermissionService(t *testing.T) (*Service, *stubClock) {
	t.Helper()
	db := openPermissionDB(t)

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := &stubClock{now: time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)}
	return &Service{
		db:  db,
		log: zap.NewNop(),

		genID:  node,
		clock:  clk,
		outbox: events.NewOutbox(db, node),
	}, clk
}

func openPermissionDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS permissions (
			id BIGINT NOT NULL, sub_id BIGINT NOT NULL DEFAULT 0,
			code TEXT NOT NULL, name TEXT NOT NULL, description TEXT,
			advanced BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (id, sub_id)
		)`,
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
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB, id, subID int64) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO permissions (id, sub_id, code, name) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id, sub_id) DO NOTHING`,
		id, subID, "facturas", "Facturas",
	).Error
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}

func TestToggleIsOptimistic(t *testing.T) {
	svc, _ := newPermissionService(t)
	ctx := context.Background()
	seedCatalog(t, svc.db, 4, 0)

	ispID := svc.genID.Generate()
	userID := svc.genID.Generate()

	grant, err := svc.Toggle(ctx, ispID, permissiondomain.ToggleRequest{
		UserID:       userID,
		PermissionID: 4,
		Enabled:      true,
	})
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !grant.Enabled {
		t.Fatalf("expected optimistic enabled value")
	}
	if grant.SyncStatus != permissiondomain.SyncPending {
		t.Fatalf("sync status = %s, want pending", grant.SyncStatus)
	}

	enabled, err := svc.HasPermission(ctx, ispID, userID, 4, 0)
	if err != nil {
		t.Fatalf("has permission: %v", err)
	}
	if !enabled {
		t.Fatalf("expected effective value before sync completes")
	}
}

func TestToggleUpsertsAndResetsAttempts(t *testing.T) {
	svc, clk := newPermissionService(t)
	ctx := context.Background()
	seedCatalog(t, svc.db, 5, 0)

	ispID := svc.genID.Generate()
	userID := svc.genID.Generate()

	first, err := svc.Toggle(ctx, ispID, permissiondomain.ToggleRequest{
		UserID: userID, PermissionID: 5, Enabled: true,
	})
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}

	// Simulate the reconciler parking the row as failed.
	err = svc.db.Exec(
		`UPDATE user_permissions SET sync_status = 'failed', sync_attempts = 5, last_error = 'timeout' WHERE id = ?`,
		first.ID,
	).Error
	if err != nil {
		t.Fatalf("park failed: %v", err)
	}

	clk.now = clk.now.Add(time.Minute)
	second, err := svc.Toggle(ctx, ispID, permissiondomain.ToggleRequest{
		UserID: userID, PermissionID: 5, Enabled: false,
	})
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected upsert on the same row")
	}
	if second.Enabled {
		t.Fatalf("expected disabled after second toggle")
	}
	if second.SyncStatus != permissiondomain.SyncPending || second.SyncAttempts != 0 {
		t.Fatalf("expected pending with reset attempts, got %s/%d", second.SyncStatus, second.SyncAttempts)
	}
}

func TestToggleUnknownPermission(t *testing.T) {
	svc, _ := newPermissionService(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, svc.genID.Generate(), permissiondomain.ToggleRequest{
		UserID:       svc.genID.Generate(),
		PermissionID: 999,
		Enabled:      true,
	})
	if !errors.Is(err, permissiondomain.ErrUnknownPermission) {
		t.Fatalf("expected unknown_permission, got %v", err)
	}
}

func TestToggleSubPermission(t *testing.T) {
	svc, _ := newPermissionService(t)
	ctx := context.Background()
	seedCatalog(t, svc.db, 6, 0)
	seedCatalog(t, svc.db, 6, 2)

	ispID := svc.genID.Generate()
	userID := svc.genID.Generate()

	if _, err := svc.Toggle(ctx, ispID, permissiondomain.ToggleRequest{
		UserID: userID, PermissionID: 6, SubPermissionID: 2, Enabled: true,
	}); err != nil {
		t.Fatalf("toggle sub: %v", err)
	}

	enabled, err := svc.HasPermission(ctx, ispID, userID, 6, 2)
	if err != nil {
		t.Fatalf("has permission: %v", err)
	}
	if !enabled {
		t.Fatalf("expected sub-permission grant")
	}

	parent, err := svc.HasPermission(ctx, ispID, userID, 6, 0)
	if err != nil {
		t.Fatalf("has permission parent: %v", err)
	}
	if parent {
		t.Fatalf("sub-permission grant must not imply the parent")
	}
}
