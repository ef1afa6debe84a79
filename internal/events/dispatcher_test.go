package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/config"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func dispatcherFixture(t *testing.T) (*gorm.DB, *Outbox) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	err = db.Exec(`CREATE TABLE IF NOT EXISTS isp_events (
		id INTEGER PRIMARY KEY,
		isp_id INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		dedupe_key TEXT,
		published BOOLEAN NOT NULL DEFAULT false,
		created_at DATETIME NOT NULL,
		UNIQUE (isp_id, dedupe_key)
	)`).Error
	if err != nil {
		t.Fatalf("create isp_events: %v", err)
	}

	node, err := snowflake.NewNode(9)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return db, NewOutbox(db, node)
}

func newTestDispatcher(t *testing.T, db *gorm.DB, webhookURL string) *Dispatcher {
	t.Helper()
	return NewDispatcher(DispatcherParam{
		DB:  db,
		Log: zap.NewNop(),
		Cfg: config.Config{
			EventWebhookURL:    webhookURL,
			EventDispatchEvery: time.Second,
		},
	})
}

func unpublishedCount(t *testing.T, db *gorm.DB, ispID snowflake.ID) int64 {
	t.Helper()
	var count int64
	err := db.Raw(
		`SELECT COUNT(1) FROM isp_events WHERE isp_id = ? AND NOT published`,
		ispID,
	).Scan(&count).Error
	if err != nil {
		t.Fatalf("count unpublished: %v", err)
	}
	return count
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	db, outbox := dispatcherFixture(t)
	ctx := context.Background()
	ispID := snowflake.ID(9001)

	var received []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Type string `json:"tipo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		received = append(received, body.Type)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	for _, name := range []string{EventInvoiceCreated, EventInvoicePaid} {
		err := outbox.Publish(ctx, Event{
			ISPID:   ispID,
			Type:    name,
			Payload: map[string]any{"id_factura": "1"},
		})
		if err != nil {
			t.Fatalf("publish %s: %v", name, err)
		}
	}

	dispatcher := newTestDispatcher(t, db, server.URL)
	if err := dispatcher.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(received) != 2 || received[0] != EventInvoiceCreated || received[1] != EventInvoicePaid {
		t.Fatalf("unexpected delivery order: %v", received)
	}
	if count := unpublishedCount(t, db, ispID); count != 0 {
		t.Fatalf("expected empty backlog, got %d rows", count)
	}
}

func TestDispatcherKeepsRowOnWebhookFailure(t *testing.T) {
	db, outbox := dispatcherFixture(t)
	ctx := context.Background()
	ispID := snowflake.ID(9002)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := outbox.Publish(ctx, Event{
		ISPID:   ispID,
		Type:    EventClientCreated,
		Payload: map[string]any{"id_cliente": "7"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	dispatcher := newTestDispatcher(t, db, server.URL)
	if err := dispatcher.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if count := unpublishedCount(t, db, ispID); count != 1 {
		t.Fatalf("expected row to stay unpublished, got %d rows", count)
	}
}

func TestDispatcherDrainsWithoutWebhook(t *testing.T) {
	db, outbox := dispatcherFixture(t)
	ctx := context.Background()
	ispID := snowflake.ID(9003)

	err := outbox.Publish(ctx, Event{
		ISPID:   ispID,
		Type:    EventCycleClosed,
		Payload: map[string]any{"id_ciclo": "3"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	dispatcher := newTestDispatcher(t, db, "")
	if err := dispatcher.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if count := unpublishedCount(t, db, ispID); count != 0 {
		t.Fatalf("expected drained backlog, got %d rows", count)
	}
}

func TestOutboxDedupeKeyInsertsOnce(t *testing.T) {
	db, outbox := dispatcherFixture(t)
	ctx := context.Background()
	ispID := snowflake.ID(9004)

	event := Event{
		ISPID:     ispID,
		Type:      EventInvoiceCreated,
		Payload:   map[string]any{"id_factura": "42"},
		DedupeKey: "invoice.created:42",
	}
	if err := outbox.Publish(ctx, event); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := outbox.Publish(ctx, event); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	if count := unpublishedCount(t, db, ispID); count != 1 {
		t.Fatalf("expected one deduplicated row, got %d", count)
	}
}
