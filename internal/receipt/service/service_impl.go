package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountingdomain "github.com/weperezh01/isp-core/internal/accounting/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/events"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
	receiptdomain "github.com/weperezh01/isp-core/internal/receipt/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Invoices   invoicedomain.Service
	Accounting accountingdomain.Service
	Outbox     *events.Outbox
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	clock      clock.Clock
	invoices   invoicedomain.Service
	accounting accountingdomain.Service
	outbox     *events.Outbox
}

func NewService(p ServiceParam) receiptdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("receipt.service"),

		genID:      p.GenID,
		clock:      p.Clock,
		invoices:   p.Invoices,
		accounting: p.Accounting,
		outbox:     p.Outbox,
	}
}

func (s *Service) Issue(ctx context.Context, ispID snowflake.ID, req receiptdomain.IssueReceiptRequest) (receiptdomain.Receipt, error) {
	if ispID == 0 {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidISP
	}
	switch req.Method {
	case receiptdomain.MethodCash, receiptdomain.MethodTransfer, receiptdomain.MethodCard:
	default:
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidMethod
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.Sign() <= 0 {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidAmount
	}

	invoice, err := s.invoices.GetByID(ctx, ispID, req.InvoiceID)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrInvoiceNotFound) {
			return receiptdomain.Receipt{}, receiptdomain.ErrInvalidInvoice
		}
		return receiptdomain.Receipt{}, err
	}
	if invoice.Status != invoicedomain.InvoicePending {
		return receiptdomain.Receipt{}, receiptdomain.ErrInvalidInvoice
	}

	var paid decimal.Decimal
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) FROM receipts WHERE invoice_id = ?`,
		invoice.ID,
	).Scan(&paid).Error
	if err != nil {
		return receiptdomain.Receipt{}, err
	}

	balance := invoice.Total.Sub(paid)
	if amount.GreaterThan(balance) {
		return receiptdomain.Receipt{}, receiptdomain.ErrOverpayment
	}

	now := s.clock.Now()
	receipt := receiptdomain.Receipt{
		ID:         s.genID.Generate(),
		ISPID:      ispID,
		InvoiceID:  invoice.ID,
		ClientID:   invoice.ClientID,
		Amount:     amount,
		Method:     req.Method,
		Reference:  strings.TrimSpace(req.Reference),
		ReceivedAt: now,
		CreatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			ISPID: ispID,
			Type:  events.EventReceiptIssued,
			Payload: map[string]any{
				"receipt_id": receipt.ID.String(),
				"invoice_id": invoice.ID.String(),
				"amount":     amount.String(),
				"method":     string(req.Method),
			},
			DedupeKey: "receipt.issued:" + receipt.ID.String(),
		})
	})
	if err != nil {
		return receiptdomain.Receipt{}, err
	}

	if paid.Add(amount).GreaterThanOrEqual(invoice.Total) {
		if _, err := s.invoices.MarkPaid(ctx, ispID, invoice.ID); err != nil {
			s.log.Warn("invoice not settled after full payment",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err),
			)
		}
	}

	// Cash posting is best effort and only for subscribed ISPs.
	if active, err := s.accounting.IsActive(ctx, ispID); err == nil && active {
		err := s.accounting.CreateEntry(ctx, ispID,
			accountingdomain.SourceTypeReceipt, receipt.ID, now,
			[]accountingdomain.LinePosting{
				{AccountCode: accountingdomain.AccountCodeCash, Direction: accountingdomain.EntryDirectionDebit, Amount: amount.String()},
				{AccountCode: accountingdomain.AccountCodeAccountsReceivable, Direction: accountingdomain.EntryDirectionCredit, Amount: amount.String()},
			},
		)
		if err != nil {
			s.log.Warn("receipt not posted to ledger",
				zap.String("receipt_id", receipt.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("receipt issued",
		zap.String("receipt_id", receipt.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("amount", amount.String()),
	)
	return receipt, nil
}

func (s *Service) ListByInvoice(ctx context.Context, ispID, invoiceID snowflake.ID) ([]receiptdomain.Receipt, error) {
	if ispID == 0 {
		return nil, receiptdomain.ErrInvalidISP
	}
	var receipts []receiptdomain.Receipt
	err := s.db.WithContext(ctx).
		Where("isp_id = ? AND invoice_id = ?", ispID, invoiceID).
		Order("received_at ASC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
