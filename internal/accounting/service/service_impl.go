package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountingdomain "github.com/weperezh01/isp-core/internal/accounting/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultAccounts = []struct {
	code string
	name string
}{
	{accountingdomain.AccountCodeAccountsReceivable, "Cuentas por cobrar"},
	{accountingdomain.AccountCodeRevenue, "Ingresos"},
	{accountingdomain.AccountCodeITBISPayable, "ITBIS por pagar"},
	{accountingdomain.AccountCodeCash, "Caja"},
}

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

func NewService(p ServiceParam) accountingdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("accounting.service"),

		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Subscribe(ctx context.Context, ispID snowflake.ID) error {
	if ispID == 0 {
		return accountingdomain.ErrInvalidISP
	}
	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO accounting_subscriptions (isp_id, active, activated_at)
			 VALUES (?, true, ?)
			 ON CONFLICT (isp_id) DO UPDATE SET active = true, activated_at = excluded.activated_at, deactivated_at = NULL`,
			ispID, now,
		).Error; err != nil {
			return err
		}
		for _, account := range defaultAccounts {
			if err := tx.Exec(
				`INSERT INTO accounting_accounts (id, isp_id, code, name, created_at)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (isp_id, code) DO NOTHING`,
				s.genID.Generate(), ispID, account.code, account.name, now,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) Unsubscribe(ctx context.Context, ispID snowflake.ID) error {
	if ispID == 0 {
		return accountingdomain.ErrInvalidISP
	}
	now := s.clock.Now()
	res := s.db.WithContext(ctx).Exec(
		`UPDATE accounting_subscriptions SET active = false, deactivated_at = ? WHERE isp_id = ? AND active`,
		now, ispID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return accountingdomain.ErrNotSubscribed
	}
	return nil
}

func (s *Service) IsActive(ctx context.Context, ispID snowflake.ID) (bool, error) {
	if ispID == 0 {
		return false, nil
	}
	var active int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM accounting_subscriptions WHERE isp_id = ? AND active`,
		ispID,
	).Scan(&active).Error
	if err != nil {
		return false, err
	}
	return active > 0, nil
}

func (s *Service) CreateEntry(
	ctx context.Context,
	ispID snowflake.ID,
	sourceType string,
	sourceID snowflake.ID,
	occurredAt time.Time,
	lines []accountingdomain.LinePosting,
) error {
	if ispID == 0 {
		return accountingdomain.ErrInvalidISP
	}
	switch sourceType {
	case accountingdomain.SourceTypeInvoice, accountingdomain.SourceTypeReceipt, accountingdomain.SourceTypeAdjustment:
	default:
		return accountingdomain.ErrInvalidSourceType
	}
	if sourceID == 0 {
		return accountingdomain.ErrInvalidSourceID
	}
	if occurredAt.IsZero() {
		return accountingdomain.ErrInvalidOccurredAt
	}

	active, err := s.IsActive(ctx, ispID)
	if err != nil {
		return err
	}
	if !active {
		return accountingdomain.ErrNotSubscribed
	}

	parsed := make([]accountingdomain.ParsedLine, 0, len(lines))
	for _, line := range lines {
		amount, err := decimal.NewFromString(strings.TrimSpace(line.Amount))
		if err != nil {
			return accountingdomain.ErrInvalidLineAmount
		}
		parsed = append(parsed, accountingdomain.ParsedLine{
			AccountCode: line.AccountCode,
			Direction:   line.Direction,
			Amount:      amount,
		})
	}
	if err := accountingdomain.ValidateBalanced(parsed); err != nil {
		return err
	}

	now := s.clock.Now()
	entry := accountingdomain.Entry{
		ID:         s.genID.Generate(),
		ISPID:      ispID,
		SourceType: sourceType,
		SourceID:   sourceID,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		for _, line := range parsed {
			var accountID snowflake.ID
			err := tx.Raw(
				`SELECT id FROM accounting_accounts WHERE isp_id = ? AND code = ?`,
				ispID, line.AccountCode,
			).Scan(&accountID).Error
			if err != nil {
				return err
			}
			if accountID == 0 {
				return accountingdomain.ErrInvalidAccount
			}
			posting := accountingdomain.EntryLine{
				ID:        s.genID.Generate(),
				EntryID:   entry.ID,
				AccountID: accountID,
				Direction: line.Direction,
				Amount:    line.Amount,
				CreatedAt: now,
			}
			if err := tx.Create(&posting).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) ListEntries(ctx context.Context, ispID snowflake.ID, limit int) ([]accountingdomain.Entry, error) {
	if ispID == 0 {
		return nil, accountingdomain.ErrInvalidISP
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []accountingdomain.Entry
	err := s.db.WithContext(ctx).
		Where("isp_id = ?", ispID).
		Order("occurred_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
