package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	cycledomain "github.com/weperezh01/isp-core/internal/billingcycle/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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

func NewService(p ServiceParam) cycledomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("billingcycle.service"),

		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Open(ctx context.Context, ispID snowflake.ID, year int, month time.Month) (cycledomain.BillingCycle, error) {
	if ispID == 0 {
		return cycledomain.BillingCycle{}, cycledomain.ErrInvalidISP
	}
	if year < 2000 || month < time.January || month > time.December {
		return cycledomain.BillingCycle{}, cycledomain.ErrInvalidPeriod
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	now := s.clock.Now()

	cycle := cycledomain.BillingCycle{
		ID:          s.genID.Generate(),
		ISPID:       ispID,
		Year:        year,
		Month:       month,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      cycledomain.BillingCycleStatusOpen,
		OpenedAt:    &now,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Concurrent opens for the same month race on the unique period index.
	// Insert-then-read keeps exactly one row per (isp, year, month).
	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO billing_cycles (id, isp_id, year, month, period_start, period_end, status, opened_at, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, '{}', ?, ?)
		 ON CONFLICT (isp_id, year, month) DO NOTHING`,
		cycle.ID, cycle.ISPID, cycle.Year, cycle.Month,
		cycle.PeriodStart, cycle.PeriodEnd, cycle.Status,
		cycle.OpenedAt, cycle.CreatedAt, cycle.UpdatedAt,
	).Error
	if err != nil {
		return cycledomain.BillingCycle{}, err
	}

	var existing cycledomain.BillingCycle
	err = s.db.WithContext(ctx).
		First(&existing, "isp_id = ? AND year = ? AND month = ?", ispID, year, month).Error
	if err != nil {
		return cycledomain.BillingCycle{}, err
	}
	return existing, nil
}

func (s *Service) Current(ctx context.Context, ispID snowflake.ID, ts time.Time) (cycledomain.BillingCycle, error) {
	ts = ts.UTC()
	return s.Open(ctx, ispID, ts.Year(), ts.Month())
}

func (s *Service) GetByID(ctx context.Context, ispID, id snowflake.ID) (cycledomain.BillingCycle, error) {
	var cycle cycledomain.BillingCycle
	err := s.db.WithContext(ctx).First(&cycle, "id = ? AND isp_id = ?", id, ispID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cycledomain.BillingCycle{}, cycledomain.ErrNotFound
		}
		return cycledomain.BillingCycle{}, err
	}
	return cycle, nil
}

func (s *Service) List(ctx context.Context, ispID snowflake.ID) ([]cycledomain.BillingCycle, error) {
	if ispID == 0 {
		return nil, cycledomain.ErrInvalidISP
	}
	var cycles []cycledomain.BillingCycle
	err := s.db.WithContext(ctx).
		Where("isp_id = ?", ispID).
		Order("year DESC, month DESC").
		Find(&cycles).Error
	if err != nil {
		return nil, err
	}
	return cycles, nil
}

func (s *Service) Close(ctx context.Context, ispID, id snowflake.ID) (cycledomain.BillingCycle, error) {
	cycle, err := s.GetByID(ctx, ispID, id)
	if err != nil {
		return cycledomain.BillingCycle{}, err
	}
	if cycle.Status == cycledomain.BillingCycleStatusClosed {
		return cycledomain.BillingCycle{}, cycledomain.ErrAlreadyClosed
	}

	now := s.clock.Now()
	res := s.db.WithContext(ctx).Exec(
		`UPDATE billing_cycles
		 SET status = ?, closed_at = ?, updated_at = ?
		 WHERE id = ? AND isp_id = ? AND status IN (?, ?)`,
		cycledomain.BillingCycleStatusClosed, now, now,
		id, ispID,
		cycledomain.BillingCycleStatusOpen, cycledomain.BillingCycleStatusClosing,
	)
	if res.Error != nil {
		return cycledomain.BillingCycle{}, res.Error
	}
	if res.RowsAffected == 0 {
		return cycledomain.BillingCycle{}, cycledomain.ErrAlreadyClosed
	}

	s.log.Info("billing cycle closed",
		zap.String("cycle_id", id.String()),
		zap.String("isp_id", ispID.String()),
	)
	return s.GetByID(ctx, ispID, id)
}
