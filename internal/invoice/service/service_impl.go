package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	cycledomain "github.com/weperezh01/isp-core/internal/billingcycle/domain"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	"github.com/weperezh01/isp-core/internal/clock"
	"github.com/weperezh01/isp-core/internal/events"
	"github.com/weperezh01/isp-core/internal/format"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
	"github.com/weperezh01/isp-core/internal/invoice/draft"
	"github.com/weperezh01/isp-core/internal/invoice/render"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ncfPrefix is the fiscal series for consumer invoices.
const ncfPrefix = "B01"

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cycles   cycledomain.Service
	Clients  clientdomain.Service
	ISPs     ispdomain.Service
	Renderer render.Renderer
	Outbox   *events.Outbox
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	cycles   cycledomain.Service
	clients  clientdomain.Service
	isps     ispdomain.Service
	renderer render.Renderer
	outbox   *events.Outbox
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("invoice.service"),

		genID:    p.GenID,
		clock:    p.Clock,
		cycles:   p.Cycles,
		clients:  p.Clients,
		isps:     p.ISPs,
		renderer: p.Renderer,
		outbox:   p.Outbox,
	}
}

func (s *Service) Create(ctx context.Context, ispID snowflake.ID, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if ispID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidISP
	}
	if req.ClientID == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
	}
	if len(req.Articles) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNoArticles
	}

	if _, err := s.clients.GetByID(ctx, ispID, req.ClientID); err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidClient
		}
		return invoicedomain.Invoice{}, err
	}

	now := s.clock.Now()
	cycle, err := s.resolveCycle(ctx, ispID, req.CycleID, now)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	d := draft.New(s.clock)
	for _, article := range req.Articles {
		if _, err := d.AddLineItem(article.Description, article.Quantity, article.UnitPrice, article.ProductID); err != nil {
			return invoicedomain.Invoice{}, fmt.Errorf("%w: %w", invoicedomain.ErrInvalidArticle, err)
		}
	}
	if raw := strings.TrimSpace(req.Discount); raw != "" {
		d.SetDiscount(raw)
		if d.DiscountInput() != raw {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvalidDiscount
		}
	}

	invoice := invoicedomain.Invoice{
		ID:           s.genID.Generate(),
		ISPID:        ispID,
		ClientID:     req.ClientID,
		CycleID:      cycle.ID,
		ConnectionID: req.ConnectionID,
		Description:  strings.TrimSpace(req.Description),
		Subtotal:     d.Subtotal(),
		Discount:     d.Discount(),
		ITBIS:        d.Tax(),
		Total:        d.Total(),
		Status:       invoicedomain.InvoicePending,
		IssueDate:    format.Date(now),
		IssueTime:    format.TimeOfDay(now),
		IssuedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	items := d.Items()
	articles := make([]invoicedomain.Article, 0, len(items))
	for i, item := range items {
		date := strings.TrimSpace(req.Articles[i].Date)
		if date == "" {
			date = format.Date(item.Date)
		}
		articles = append(articles, invoicedomain.Article{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Order:       item.Order,
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			Date:        date,
			CreatedAt:   now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice.NCF = strings.TrimSpace(req.NCF)
		if invoice.NCF == "" {
			ncf, err := s.nextNCF(ctx, tx, ispID)
			if err != nil {
				return err
			}
			invoice.NCF = ncf
		}

		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		if err := tx.Create(&articles).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			ISPID: ispID,
			Type:  events.EventInvoiceCreated,
			Payload: events.InvoicePayload{
				InvoiceID: invoice.ID.String(),
				ClientID:  invoice.ClientID.String(),
				CycleID:   invoice.CycleID.String(),
				NCF:       invoice.NCF,
				Total:     invoice.Total.String(),
			}.ToMap(),
			DedupeKey: "invoice.created:" + invoice.ID.String(),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("ncf", invoice.NCF),
		zap.String("client_id", invoice.ClientID.String()),
		zap.String("total", invoice.Total.String()),
	)
	invoice.Articles = articles
	return invoice, nil
}

func (s *Service) AttachArticles(ctx context.Context, ispID, invoiceID snowflake.ID, inputs []invoicedomain.ArticleInput) (invoicedomain.Invoice, error) {
	if len(inputs) == 0 {
		return invoicedomain.Invoice{}, invoicedomain.ErrNoArticles
	}

	invoice, err := s.GetByID(ctx, ispID, invoiceID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if invoice.Status != invoicedomain.InvoicePending {
		return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotOpen
	}

	maxOrder := 0
	for _, a := range invoice.Articles {
		if a.Order > maxOrder {
			maxOrder = a.Order
		}
	}

	now := s.clock.Now()
	added := decimal.Zero
	articles := make([]invoicedomain.Article, 0, len(inputs))
	for i, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" {
			return invoicedomain.Invoice{}, fmt.Errorf("%w: %w", invoicedomain.ErrInvalidArticle, draft.ErrMissingDescription)
		}
		qty, err := decimal.NewFromString(strings.TrimSpace(input.Quantity))
		if err != nil || qty.Sign() <= 0 {
			return invoicedomain.Invoice{}, fmt.Errorf("%w: %w", invoicedomain.ErrInvalidArticle, draft.ErrInvalidQuantity)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(input.UnitPrice))
		if err != nil || price.Sign() < 0 {
			return invoicedomain.Invoice{}, fmt.Errorf("%w: %w", invoicedomain.ErrInvalidArticle, draft.ErrInvalidUnitPrice)
		}

		date := strings.TrimSpace(input.Date)
		if date == "" {
			date = format.Date(now)
		}
		lineTotal := qty.Mul(price)
		added = added.Add(lineTotal)
		articles = append(articles, invoicedomain.Article{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Order:       maxOrder + i + 1,
			ProductID:   input.ProductID,
			Description: description,
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   lineTotal,
			Date:        date,
			CreatedAt:   now,
		})
	}

	subtotal := invoice.Subtotal.Add(added)
	tax := subtotal.Mul(draft.ITBISRate)
	total := subtotal.Sub(invoice.Discount).Add(tax)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&articles).Error; err != nil {
			return err
		}
		res := tx.Exec(
			`UPDATE invoices
			 SET subtotal = ?, itbis = ?, total = ?, updated_at = ?
			 WHERE id = ? AND isp_id = ? AND status = ?`,
			subtotal, tax, total, now,
			invoice.ID, ispID, invoicedomain.InvoicePending,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicedomain.ErrInvoiceNotOpen
		}
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	return s.GetByID(ctx, ispID, invoiceID)
}

func (s *Service) GetByID(ctx context.Context, ispID, id snowflake.ID) (invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).First(&invoice, "id = ? AND isp_id = ?", id, ispID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invoicedomain.Invoice{}, invoicedomain.ErrInvoiceNotFound
		}
		return invoicedomain.Invoice{}, err
	}

	var articles []invoicedomain.Article
	err = s.db.WithContext(ctx).
		Where("invoice_id = ?", id).
		Order("position ASC").
		Find(&articles).Error
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	invoice.Articles = articles
	return invoice, nil
}

func (s *Service) List(ctx context.Context, ispID snowflake.ID, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.Invoice, error) {
	if ispID == 0 {
		return nil, invoicedomain.ErrInvalidISP
	}

	q := s.db.WithContext(ctx).Where("isp_id = ?", ispID)
	if req.ClientID != 0 {
		q = q.Where("client_id = ?", req.ClientID)
	}
	if req.CycleID != 0 {
		q = q.Where("cycle_id = ?", req.CycleID)
	}
	if req.Status != "" {
		q = q.Where("status = ?", req.Status)
	}

	var invoices []invoicedomain.Invoice
	if err := q.Order("issued_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (s *Service) MarkPaid(ctx context.Context, ispID, id snowflake.ID) (invoicedomain.Invoice, error) {
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND isp_id = ? AND status = ?`,
			invoicedomain.InvoicePaid, now, id, ispID, invoicedomain.InvoicePending,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicedomain.ErrInvoiceNotOpen
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			ISPID:     ispID,
			Type:      events.EventInvoicePaid,
			Payload:   events.InvoicePayload{InvoiceID: id.String()}.ToMap(),
			DedupeKey: "invoice.paid:" + id.String(),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.GetByID(ctx, ispID, id)
}

func (s *Service) Void(ctx context.Context, ispID, id snowflake.ID, reason string) (invoicedomain.Invoice, error) {
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE invoices
			 SET status = ?, void_reason = ?, updated_at = ?
			 WHERE id = ? AND isp_id = ? AND status = ?`,
			invoicedomain.InvoiceVoided, strings.TrimSpace(reason), now,
			id, ispID, invoicedomain.InvoicePending,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return invoicedomain.ErrInvoiceNotOpen
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			ISPID:     ispID,
			Type:      events.EventInvoiceVoided,
			Payload:   events.InvoicePayload{InvoiceID: id.String()}.ToMap(),
			DedupeKey: "invoice.voided:" + id.String(),
		})
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return s.GetByID(ctx, ispID, id)
}

func (s *Service) RenderHTML(ctx context.Context, ispID, id snowflake.ID) (string, error) {
	invoice, err := s.GetByID(ctx, ispID, id)
	if err != nil {
		return "", err
	}
	isp, err := s.isps.GetByID(ctx, ispID.String())
	if err != nil {
		return "", err
	}
	client, err := s.clients.GetByID(ctx, ispID, invoice.ClientID)
	if err != nil {
		return "", err
	}

	items := make([]render.LineItemView, 0, len(invoice.Articles))
	for _, a := range invoice.Articles {
		items = append(items, render.LineItemView{
			Order:       a.Order,
			Description: a.Description,
			Quantity:    a.Quantity,
			UnitPrice:   a.UnitPrice,
			LineTotal:   a.LineTotal,
		})
	}

	return s.renderer.RenderHTML(render.RenderInput{
		ISP: render.ISPView{
			Name:    isp.Name,
			RNC:     isp.RNC,
			Address: isp.Address,
			Phone:   isp.Phone,
		},
		Invoice: render.InvoiceView{
			ID:        invoice.ID.String(),
			NCF:       invoice.NCF,
			Status:    string(invoice.Status),
			IssueDate: invoice.IssueDate,
			IssueTime: invoice.IssueTime,
			IssuedAt:  invoice.IssuedAt,
			Subtotal:  invoice.Subtotal,
			Discount:  invoice.Discount,
			ITBIS:     invoice.ITBIS,
			Total:     invoice.Total,
		},
		Client: render.ClientView{
			Name:    client.FullName(),
			Cedula:  client.Cedula,
			RNC:     client.RNC,
			Phone:   client.Phone,
			Address: client.Address,
		},
		Items: items,
	})
}

func (s *Service) resolveCycle(ctx context.Context, ispID, cycleID snowflake.ID, now time.Time) (cycledomain.BillingCycle, error) {
	if cycleID == 0 {
		return s.cycles.Current(ctx, ispID, now)
	}
	cycle, err := s.cycles.GetByID(ctx, ispID, cycleID)
	if err != nil {
		if errors.Is(err, cycledomain.ErrNotFound) {
			return cycledomain.BillingCycle{}, invoicedomain.ErrInvalidCycle
		}
		return cycledomain.BillingCycle{}, err
	}
	if cycle.Status == cycledomain.BillingCycleStatusClosed {
		return cycledomain.BillingCycle{}, invoicedomain.ErrCycleClosed
	}
	return cycle, nil
}

// nextNCF allocates the next fiscal number inside the caller's transaction.
func (s *Service) nextNCF(ctx context.Context, tx *gorm.DB, ispID snowflake.ID) (string, error) {
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO ncf_sequences (isp_id, prefix, next) VALUES (?, ?, 1)
		 ON CONFLICT (isp_id, prefix) DO NOTHING`,
		ispID, ncfPrefix,
	).Error; err != nil {
		return "", err
	}
	if err := tx.WithContext(ctx).Exec(
		`UPDATE ncf_sequences SET next = next + 1 WHERE isp_id = ? AND prefix = ?`,
		ispID, ncfPrefix,
	).Error; err != nil {
		return "", err
	}

	var next int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT next FROM ncf_sequences WHERE isp_id = ? AND prefix = ?`,
		ispID, ncfPrefix,
	).Scan(&next).Error; err != nil {
		return "", err
	}
	// next already points past the allocated number.
	return fmt.Sprintf("%s%08d", ncfPrefix, next-1), nil
}
