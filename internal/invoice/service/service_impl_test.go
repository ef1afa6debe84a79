package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	cycleservice "github.com/weperezh01/isp-core/internal/billingcycle/service"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	clientservice "github.com/weperezh01/isp-core/internal/client/service"
	"github.com/weperezh01/isp-core/internal/events"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
	"github.com/weperezh01/isp-core/internal/invoice/render"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	ispservice "github.com/weperezh01/isp-core/internal/isp/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type invoiceFixture struct {
	svc    *Service
	db     *gorm.DB
	ispID  snowflake.ID
	client clientdomain.Client
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS isps (
			id BIGINT PRIMARY KEY, name TEXT NOT NULL, rnc TEXT, address TEXT, phone TEXT,
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS isp_members (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, user_id BIGINT NOT NULL,
			role TEXT NOT NULL, created_at DATETIME NOT NULL,
			UNIQUE (isp_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL,
			first_name TEXT NOT NULL, last_name TEXT, cedula TEXT, rnc TEXT,
			phone TEXT, phone2 TEXT, email TEXT, address TEXT,
			status TEXT NOT NULL DEFAULT 'activo',
			created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS billing_cycles (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL,
			year INTEGER NOT NULL, month INTEGER NOT NULL,
			period_start DATETIME NOT NULL, period_end DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'OPEN',
			opened_at DATETIME, closed_at DATETIME, last_error TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
			UNIQUE (isp_id, year, month)
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, ncf TEXT NOT NULL,
			client_id BIGINT NOT NULL, cycle_id BIGINT NOT NULL, connection_id BIGINT,
			description TEXT,
			subtotal NUMERIC NOT NULL, discount NUMERIC NOT NULL,
			itbis NUMERIC NOT NULL, total NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'pendiente',
			issue_date TEXT NOT NULL, issue_time TEXT NOT NULL, issued_at DATETIME NOT NULL,
			void_reason TEXT,
			created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL,
			UNIQUE (isp_id, ncf)
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_articles (
			id BIGINT PRIMARY KEY, invoice_id BIGINT NOT NULL, position INTEGER NOT NULL,
			product_id BIGINT, description TEXT NOT NULL,
			quantity NUMERIC NOT NULL, unit_price NUMERIC NOT NULL, line_total NUMERIC NOT NULL,
			date TEXT, created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ncf_sequences (
			isp_id BIGINT NOT NULL, prefix TEXT NOT NULL, next BIGINT NOT NULL DEFAULT 1,
			PRIMARY KEY (isp_id, prefix)
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

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := &fixedClock{now: time.Date(2025, 7, 15, 14, 30, 5, 0, time.UTC)}
	log := zap.NewNop()

	isps := ispservice.NewService(ispservice.ServiceParam{DB: db, Log: log, GenID: node})
	clients := clientservice.NewService(clientservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	cycles := cycleservice.NewService(cycleservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})

	ctx := context.Background()
	isp, err := isps.Create(ctx, node.Generate(), ispdomain.CreateISPRequest{
		Name:    "Wisp Demo",
		RNC:     "1-31-12345-6",
		Address: "Av. Independencia 100",
		Phone:   "809-555-0100",
	})
	if err != nil {
		t.Fatalf("create isp: %v", err)
	}
	client, err := clients.Create(ctx, isp.ID, clientdomain.UpsertClientRequest{
		FirstName: "Ana",
		LastName:  "Gomez",
		Cedula:    "001-1234567-8",
		Phone:     "809-555-0101",
		Address:   "Calle Duarte 12",
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	svc := &Service{
		db:  db,
		log: log,

		genID:    node,
		clock:    clk,
		cycles:   cycles,
		clients:  clients,
		isps:     isps,
		renderer: render.NewRenderer(),
		outbox:   events.NewOutbox(db, node),
	}
	return &invoiceFixture{svc: svc, db: db, ispID: isp.ID, client: client}
}

func TestCreateInvoiceTotals(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID:    f.client.ID,
		Description: "Mensualidad julio",
		Discount:    "5",
		Articles: []invoicedomain.ArticleInput{
			{Description: "Internet 50Mbps", Quantity: "1", UnitPrice: "30"},
			{Description: "Instalacion", Quantity: "2", UnitPrice: "2.70"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := invoice.Subtotal.String(); got != "35.4" {
		t.Fatalf("subtotal = %s, want 35.4", got)
	}
	if got := invoice.ITBIS.String(); got != "6.372" {
		t.Fatalf("itbis = %s, want 6.372", got)
	}
	if got := invoice.Total.String(); got != "36.772" {
		t.Fatalf("total = %s, want 36.772", got)
	}
	if invoice.Status != invoicedomain.InvoicePending {
		t.Fatalf("status = %s, want pendiente", invoice.Status)
	}
	if invoice.IssueDate != "15/07/2025" || invoice.IssueTime != "14:30:05" {
		t.Fatalf("issue stamp = %s %s", invoice.IssueDate, invoice.IssueTime)
	}
	if !strings.HasPrefix(invoice.NCF, "B01") || len(invoice.NCF) != 11 {
		t.Fatalf("ncf = %q", invoice.NCF)
	}
	if len(invoice.Articles) != 2 {
		t.Fatalf("articles = %d, want 2", len(invoice.Articles))
	}
	if invoice.Articles[0].Order != 1 || invoice.Articles[1].Order != 2 {
		t.Fatalf("orders = %d, %d", invoice.Articles[0].Order, invoice.Articles[1].Order)
	}
}

func TestCreateInvoiceSequentialNCF(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	req := invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Articles: []invoicedomain.ArticleInput{{Description: "Servicio", Quantity: "1", UnitPrice: "10"}},
	}
	first, err := f.svc.Create(ctx, f.ispID, req)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := f.svc.Create(ctx, f.ispID, req)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.NCF == second.NCF {
		t.Fatalf("expected distinct NCFs, both %s", first.NCF)
	}
	if first.CycleID != second.CycleID {
		t.Fatalf("expected both invoices in the same open cycle")
	}
}

func TestCreateInvoiceKeepsCallerNCF(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		NCF:      "B0100000777",
		Articles: []invoicedomain.ArticleInput{{Description: "Servicio", Quantity: "1", UnitPrice: "10"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if invoice.NCF != "B0100000777" {
		t.Fatalf("expected caller NCF kept, got %s", invoice.NCF)
	}

	generated, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Articles: []invoicedomain.ArticleInput{{Description: "Servicio", Quantity: "1", UnitPrice: "10"}},
	})
	if err != nil {
		t.Fatalf("create generated: %v", err)
	}
	if generated.NCF == "" || generated.NCF == invoice.NCF {
		t.Fatalf("expected sequence NCF, got %q", generated.NCF)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  invoicedomain.CreateInvoiceRequest
		want error
	}{
		{"no client", invoicedomain.CreateInvoiceRequest{
			Articles: []invoicedomain.ArticleInput{{Description: "x", Quantity: "1", UnitPrice: "1"}},
		}, invoicedomain.ErrInvalidClient},
		{"unknown client", invoicedomain.CreateInvoiceRequest{
			ClientID: snowflake.ID(999),
			Articles: []invoicedomain.ArticleInput{{Description: "x", Quantity: "1", UnitPrice: "1"}},
		}, invoicedomain.ErrInvalidClient},
		{"no articles", invoicedomain.CreateInvoiceRequest{
			ClientID: f.client.ID,
		}, invoicedomain.ErrNoArticles},
		{"bad article", invoicedomain.CreateInvoiceRequest{
			ClientID: f.client.ID,
			Articles: []invoicedomain.ArticleInput{{Description: "x", Quantity: "cero", UnitPrice: "1"}},
		}, invoicedomain.ErrInvalidArticle},
		{"bad discount", invoicedomain.CreateInvoiceRequest{
			ClientID: f.client.ID,
			Discount: "-4",
			Articles: []invoicedomain.ArticleInput{{Description: "x", Quantity: "1", UnitPrice: "1"}},
		}, invoicedomain.ErrInvalidDiscount},
	}
	for _, tc := range cases {
		if _, err := f.svc.Create(ctx, f.ispID, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestAttachArticlesRecomputesTotals(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Articles: []invoicedomain.ArticleInput{{Description: "Base", Quantity: "1", UnitPrice: "100"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.svc.AttachArticles(ctx, f.ispID, invoice.ID, []invoicedomain.ArticleInput{
		{Description: "Extra", Quantity: "2", UnitPrice: "25"},
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	if got := updated.Subtotal.String(); got != "150" {
		t.Fatalf("subtotal = %s, want 150", got)
	}
	if got := updated.ITBIS.String(); got != "27" {
		t.Fatalf("itbis = %s, want 27", got)
	}
	if got := updated.Total.String(); got != "177" {
		t.Fatalf("total = %s, want 177", got)
	}
	if len(updated.Articles) != 2 {
		t.Fatalf("articles = %d, want 2", len(updated.Articles))
	}
	if updated.Articles[1].Order != 2 {
		t.Fatalf("appended order = %d, want 2", updated.Articles[1].Order)
	}
}

func TestAttachArticlesRejectsNonPending(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Articles: []invoicedomain.ArticleInput{{Description: "Base", Quantity: "1", UnitPrice: "10"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.MarkPaid(ctx, f.ispID, invoice.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	_, err = f.svc.AttachArticles(ctx, f.ispID, invoice.ID, []invoicedomain.ArticleInput{
		{Description: "Tarde", Quantity: "1", UnitPrice: "1"},
	})
	if !errors.Is(err, invoicedomain.ErrInvoiceNotOpen) {
		t.Fatalf("expected invoice_not_pending, got %v", err)
	}
}

func TestVoidInvoice(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Articles: []invoicedomain.ArticleInput{{Description: "Base", Quantity: "1", UnitPrice: "10"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	voided, err := f.svc.Void(ctx, f.ispID, invoice.ID, "emitida por error")
	if err != nil {
		t.Fatalf("void: %v", err)
	}
	if voided.Status != invoicedomain.InvoiceVoided {
		t.Fatalf("status = %s, want anulada", voided.Status)
	}
	if voided.VoidReason != "emitida por error" {
		t.Fatalf("reason = %q", voided.VoidReason)
	}

	if _, err := f.svc.MarkPaid(ctx, f.ispID, invoice.ID); !errors.Is(err, invoicedomain.ErrInvoiceNotOpen) {
		t.Fatalf("expected paid-after-void to fail, got %v", err)
	}
}

func TestRenderHTML(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, f.ispID, invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Discount: "5",
		Articles: []invoicedomain.ArticleInput{{Description: "Internet 50Mbps", Quantity: "1", UnitPrice: "1250"}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	html, err := f.svc.RenderHTML(ctx, f.ispID, invoice.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, fragment := range []string{
		invoice.NCF,
		"Ana Gomez",
		"Internet 50Mbps",
		"RD$ 1,250.00",
		"ITBIS (18%)",
		"Descuento",
	} {
		if !strings.Contains(html, fragment) {
			t.Fatalf("rendered html missing %q", fragment)
		}
	}
}
