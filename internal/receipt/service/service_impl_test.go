package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountingdomain "github.com/weperezh01/isp-core/internal/accounting/domain"
	accountingservice "github.com/weperezh01/isp-core/internal/accounting/service"
	cycleservice "github.com/weperezh01/isp-core/internal/billingcycle/service"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	clientservice "github.com/weperezh01/isp-core/internal/client/service"
	"github.com/weperezh01/isp-core/internal/events"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
	"github.com/weperezh01/isp-core/internal/invoice/render"
	invoiceservice "github.com/weperezh01/isp-core/internal/invoice/service"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	ispservice "github.com/weperezh01/isp-core/internal/isp/service"
	receiptdomain "github.com/weperezh01/isp-core/internal/receipt/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type receiptFixture struct {
	svc        receiptdomain.Service
	invoices   invoicedomain.Service
	accounting accountingdomain.Service
	db         *gorm.DB
	ispID      snowflake.ID
	invoice    invoicedomain.Invoice
}

func newReceiptFixture(t *testing.T) *receiptFixture {
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
		`CREATE TABLE IF NOT EXISTS receipts (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, invoice_id BIGINT NOT NULL,
			client_id BIGINT NOT NULL, amount NUMERIC NOT NULL, method TEXT NOT NULL,
			reference TEXT, received_at DATETIME NOT NULL, created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS isp_events (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, event_type TEXT NOT NULL,
			payload TEXT NOT NULL, dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT 0, created_at DATETIME NOT NULL,
			UNIQUE (isp_id, dedupe_key)
		)`,
		`CREATE TABLE IF NOT EXISTS accounting_accounts (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, code TEXT NOT NULL, name TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (isp_id, code)
		)`,
		`CREATE TABLE IF NOT EXISTS accounting_entries (
			id BIGINT PRIMARY KEY, isp_id BIGINT NOT NULL, source_type TEXT NOT NULL,
			source_id BIGINT NOT NULL, occurred_at DATETIME NOT NULL, created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounting_entry_lines (
			id BIGINT PRIMARY KEY, entry_id BIGINT NOT NULL, account_id BIGINT NOT NULL,
			direction TEXT NOT NULL, amount NUMERIC NOT NULL, created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounting_subscriptions (
			isp_id BIGINT PRIMARY KEY, active BOOLEAN NOT NULL DEFAULT 1,
			activated_at DATETIME NOT NULL, deactivated_at DATETIME
		)`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	clk := &fixedClock{now: time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	outbox := events.NewOutbox(db, node)

	isps := ispservice.NewService(ispservice.ServiceParam{DB: db, Log: log, GenID: node})
	clients := clientservice.NewService(clientservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	cycles := cycleservice.NewService(cycleservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	accounting := accountingservice.NewService(accountingservice.ServiceParam{DB: db, Log: log, GenID: node, Clock: clk})
	invoices := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Cycles: cycles, Clients: clients, ISPs: isps,
		Renderer: render.NewRenderer(), Outbox: outbox,
	})

	ctx := context.Background()
	isp, err := isps.Create(ctx, node.Generate(), ispdomain.CreateISPRequest{Name: "Wisp Cobros"})
	if err != nil {
		t.Fatalf("create isp: %v", err)
	}
	client, err := clients.Create(ctx, isp.ID, clientdomain.UpsertClientRequest{FirstName: "Ana"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	invoice, err := invoices.Create(ctx, isp.ID, invoicedomain.CreateInvoiceRequest{
		ClientID: client.ID,
		Articles: []invoicedomain.ArticleInput{
			{Description: "Internet 10MB", Quantity: "1", UnitPrice: "100"},
		},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	svc := NewService(ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Invoices: invoices, Accounting: accounting, Outbox: outbox,
	})

	return &receiptFixture{
		svc:        svc,
		invoices:   invoices,
		accounting: accounting,
		db:         db,
		ispID:      isp.ID,
		invoice:    invoice,
	}
}

func countLedgerEntries(t *testing.T, db *gorm.DB, ispID snowflake.ID) int {
	t.Helper()
	var count int
	err := db.Raw(`SELECT COUNT(*) FROM accounting_entries WHERE isp_id = ?`, ispID).Scan(&count).Error
	if err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return count
}

func TestIssueReceiptSettlesInvoiceWhenFullyPaid(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()

	partial, err := f.svc.Issue(ctx, f.ispID, receiptdomain.IssueReceiptRequest{
		InvoiceID: f.invoice.ID,
		Amount:    "50",
		Method:    receiptdomain.MethodCash,
	})
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if partial.Amount.String() != "50" || partial.ClientID != f.invoice.ClientID {
		t.Fatalf("unexpected receipt: %+v", partial)
	}

	after, err := f.invoices.GetByID(ctx, f.ispID, f.invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if after.Status != invoicedomain.InvoicePending {
		t.Fatalf("invoice should stay pending after partial payment, got %s", after.Status)
	}

	// Invoice total is 100 + 18% ITBIS.
	if _, err := f.svc.Issue(ctx, f.ispID, receiptdomain.IssueReceiptRequest{
		InvoiceID: f.invoice.ID,
		Amount:    "68",
		Method:    receiptdomain.MethodTransfer,
		Reference: "TRX-1001",
	}); err != nil {
		t.Fatalf("settling payment: %v", err)
	}

	settled, err := f.invoices.GetByID(ctx, f.ispID, f.invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if settled.Status != invoicedomain.InvoicePaid {
		t.Fatalf("expected paid invoice, got %s", settled.Status)
	}

	receipts, err := f.svc.ListByInvoice(ctx, f.ispID, f.invoice.ID)
	if err != nil {
		t.Fatalf("list receipts: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(receipts))
	}
}

func TestIssueReceiptRejectsOverpayment(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, f.ispID, receiptdomain.IssueReceiptRequest{
		InvoiceID: f.invoice.ID,
		Amount:    "200",
		Method:    receiptdomain.MethodCash,
	})
	if !errors.Is(err, receiptdomain.ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}
}

func TestIssueReceiptValidation(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  receiptdomain.IssueReceiptRequest
		want error
	}{
		{"bad method", receiptdomain.IssueReceiptRequest{
			InvoiceID: f.invoice.ID, Amount: "10", Method: "cheque",
		}, receiptdomain.ErrInvalidMethod},
		{"zero amount", receiptdomain.IssueReceiptRequest{
			InvoiceID: f.invoice.ID, Amount: "0", Method: receiptdomain.MethodCash,
		}, receiptdomain.ErrInvalidAmount},
		{"garbage amount", receiptdomain.IssueReceiptRequest{
			InvoiceID: f.invoice.ID, Amount: "diez", Method: receiptdomain.MethodCash,
		}, receiptdomain.ErrInvalidAmount},
		{"unknown invoice", receiptdomain.IssueReceiptRequest{
			InvoiceID: snowflake.ID(404), Amount: "10", Method: receiptdomain.MethodCash,
		}, receiptdomain.ErrInvalidInvoice},
	}
	for _, tc := range cases {
		if _, err := f.svc.Issue(ctx, f.ispID, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestIssueReceiptPostsLedgerEntryWhenSubscribed(t *testing.T) {
	f := newReceiptFixture(t)
	ctx := context.Background()

	if err := f.accounting.Subscribe(ctx, f.ispID); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	before := countLedgerEntries(t, f.db, f.ispID)
	if _, err := f.svc.Issue(ctx, f.ispID, receiptdomain.IssueReceiptRequest{
		InvoiceID: f.invoice.ID,
		Amount:    "30",
		Method:    receiptdomain.MethodCard,
	}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	if got := countLedgerEntries(t, f.db, f.ispID); got != before+1 {
		t.Fatalf("expected one new ledger entry, have %d", got)
	}
}
