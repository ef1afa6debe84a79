package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/weperezh01/isp-core/internal/config"
	"github.com/weperezh01/isp-core/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dispatchBatchSize = 100

// Dispatcher drains the outbox and delivers events to the configured
// webhook. Without a webhook it marks rows published so the table cannot
// grow unbounded.
type Dispatcher struct {
	db     *gorm.DB
	log    *zap.Logger
	client *http.Client

	webhookURL string
	every      time.Duration
}

type DispatcherParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
	Cfg config.Config
}

func NewDispatcher(p DispatcherParam) *Dispatcher {
	every := p.Cfg.EventDispatchEvery
	if every <= 0 {
		every = 5 * time.Second
	}
	return &Dispatcher{
		db:     p.DB,
		log:    p.Log.Named("events.dispatcher"),
		client: tracing.WrapHTTPClient(&http.Client{Timeout: 10 * time.Second}),

		webhookURL: p.Cfg.EventWebhookURL,
		every:      every,
	}
}

func (d *Dispatcher) RunForever(ctx context.Context) {
	ticker := time.NewTicker(d.every)
	defer ticker.Stop()

	for {
		if err := d.RunOnce(ctx); err != nil {
			d.log.Warn("event dispatch run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type outboxRow struct {
	ID        snowflake.ID
	ISPID     snowflake.ID
	EventType string
	Payload   datatypes.JSONMap
	CreatedAt time.Time
}

func (d *Dispatcher) RunOnce(ctx context.Context) error {
	var rows []outboxRow
	err := d.db.WithContext(ctx).Raw(
		`SELECT id, isp_id, event_type, payload, created_at
		 FROM isp_events
		 WHERE NOT published
		 ORDER BY created_at ASC
		 LIMIT ?`,
		dispatchBatchSize,
	).Scan(&rows).Error
	if err != nil {
		return err
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.webhookURL != "" {
			if err := d.deliver(ctx, row); err != nil {
				d.log.Warn("event delivery failed",
					zap.String("event_id", row.ID.String()),
					zap.String("event_type", row.EventType),
					zap.Error(err),
				)
				// Leave the row unpublished; the next run retries in order.
				return nil
			}
		}
		if err := d.db.WithContext(ctx).Exec(
			`UPDATE isp_events SET published = true WHERE id = ?`,
			row.ID,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, row outboxRow) error {
	body, err := json.Marshal(map[string]any{
		"id":      row.ID.String(),
		"id_isp":  row.ISPID.String(),
		"tipo":    row.EventType,
		"datos":   map[string]any(row.Payload),
		"emitido": row.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", row.EventType)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook_status_%d", resp.StatusCode)
	}
	return nil
}

// Module wires the outbox and its dispatcher.
var Module = fx.Module("events",
	fx.Provide(NewOutbox),
	fx.Provide(NewDispatcher),
	fx.Invoke(runDispatcher),
)

func runDispatcher(lc fx.Lifecycle, dispatcher *Dispatcher) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go dispatcher.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
