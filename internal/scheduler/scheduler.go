// Package scheduler advances billing cycles on a timer: it opens the current
// month's cycle for every ISP and closes cycles whose period has ended.
package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingcycledomain "github.com/weperezh01/isp-core/internal/billingcycle/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/events"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config tunes the cycle scheduler.
type Config struct {
	TickEvery time.Duration
	BatchSize int
}

func (c Config) withDefaults() Config {
	if c.TickEvery <= 0 {
		c.TickEvery = time.Minute
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	return c
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Cycles billingcycledomain.Service
	Outbox *events.Outbox
	Config Config `optional:"true"`
}

// Scheduler runs the cycle lifecycle loop.
type Scheduler struct {
	db     *gorm.DB
	log    *zap.Logger
	clock  clock.Clock
	cycles billingcycledomain.Service
	outbox *events.Outbox
	cfg    Config
}

func NewScheduler(p Params) *Scheduler {
	return &Scheduler{
		db:     p.DB,
		log:    p.Log.Named("scheduler"),
		clock:  p.Clock,
		cycles: p.Cycles,
		outbox: p.Outbox,
		cfg:    p.Config.withDefaults(),
	}
}

// RunForever ticks until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickEvery)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass: open current cycles, then close expired
// ones.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.clock.Now()

	if err := s.openCurrentCycles(ctx, now); err != nil {
		return err
	}
	return s.closeExpiredCycles(ctx, now)
}

func (s *Scheduler) openCurrentCycles(ctx context.Context, now time.Time) error {
	var ispIDs []snowflake.ID
	err := s.db.WithContext(ctx).Raw(`SELECT id FROM isps ORDER BY id`).Scan(&ispIDs).Error
	if err != nil {
		return err
	}

	for _, ispID := range ispIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.cycles.Current(ctx, ispID, now); err != nil {
			s.log.Warn("failed to open current cycle",
				zap.String("isp_id", ispID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

type expiredCycle struct {
	ID    snowflake.ID
	ISPID snowflake.ID
}

func (s *Scheduler) closeExpiredCycles(ctx context.Context, now time.Time) error {
	var expired []expiredCycle
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, isp_id FROM billing_cycles
		 WHERE status = ? AND period_end <= ?
		 ORDER BY period_end ASC
		 LIMIT ?`,
		billingcycledomain.BillingCycleStatusOpen,
		now,
		s.cfg.BatchSize,
	).Scan(&expired).Error
	if err != nil {
		return err
	}

	for _, cycle := range expired {
		if err := ctx.Err(); err != nil {
			return err
		}
		closed, err := s.cycles.Close(ctx, cycle.ISPID, cycle.ID)
		if err != nil {
			s.log.Warn("failed to close cycle",
				zap.String("cycle_id", cycle.ID.String()),
				zap.Error(err),
			)
			continue
		}
		err = s.outbox.Publish(ctx, events.Event{
			ISPID:     cycle.ISPID,
			Type:      events.EventCycleClosed,
			Payload:   map[string]any{"id_ciclo": closed.ID.String()},
			DedupeKey: events.EventCycleClosed + ":" + closed.ID.String(),
		})
		if err != nil {
			s.log.Warn("failed to publish cycle closed event",
				zap.String("cycle_id", cycle.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Module starts the scheduler with the fx lifecycle.
var Module = fx.Module("scheduler",
	fx.Provide(NewScheduler),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, scheduler *Scheduler) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go scheduler.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
