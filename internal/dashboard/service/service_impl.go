package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	dashboarddomain "github.com/weperezh01/isp-core/internal/dashboard/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p ServiceParam) dashboarddomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("dashboard.service"),
	}
}

func (s *Service) Overview(ctx context.Context, ispID snowflake.ID) (dashboarddomain.Overview, error) {
	if ispID == 0 {
		return dashboarddomain.Overview{}, dashboarddomain.ErrInvalidISP
	}

	var overview dashboarddomain.Overview
	db := s.db.WithContext(ctx)

	counts := []struct {
		dest  *int64
		query string
	}{
		{&overview.Clients, `SELECT COUNT(1) FROM clients WHERE isp_id = ?`},
		{&overview.ActiveClients, `SELECT COUNT(1) FROM clients WHERE isp_id = ? AND status = 'activo'`},
		{&overview.Connections, `SELECT COUNT(1) FROM connections WHERE isp_id = ?`},
		{&overview.Routers, `SELECT COUNT(1) FROM routers WHERE isp_id = ?`},
		{&overview.PendingInvoices, `SELECT COUNT(1) FROM invoices WHERE isp_id = ? AND status = 'pendiente'`},
	}
	for _, c := range counts {
		if err := db.Raw(c.query, ispID).Scan(c.dest).Error; err != nil {
			return dashboarddomain.Overview{}, err
		}
	}

	var pending decimal.Decimal
	err := db.Raw(
		`SELECT COALESCE(SUM(total), 0) FROM invoices WHERE isp_id = ? AND status = 'pendiente'`,
		ispID,
	).Scan(&pending).Error
	if err != nil {
		return dashboarddomain.Overview{}, err
	}
	overview.PendingAmount = pending.StringFixed(2)

	return overview, nil
}

func (s *Service) ListCycleSummaries(ctx context.Context, ispID snowflake.ID) (dashboarddomain.CycleSummaryResponse, error) {
	if ispID == 0 {
		return dashboarddomain.CycleSummaryResponse{}, dashboarddomain.ErrInvalidISP
	}

	type row struct {
		ID           snowflake.ID
		Year         int
		Month        int
		Status       string
		InvoiceCount int64
		TotalBilled  decimal.Decimal
	}
	var rows []row
	err := s.db.WithContext(ctx).Raw(
		`SELECT c.id, c.year, c.month, c.status,
		        COUNT(i.id) AS invoice_count,
		        COALESCE(SUM(i.total), 0) AS total_billed
		 FROM billing_cycles c
		 LEFT JOIN invoices i ON i.cycle_id = c.id AND i.status <> 'anulada'
		 WHERE c.isp_id = ?
		 GROUP BY c.id, c.year, c.month, c.status
		 ORDER BY c.year DESC, c.month DESC`,
		ispID,
	).Scan(&rows).Error
	if err != nil {
		return dashboarddomain.CycleSummaryResponse{}, err
	}

	response := dashboarddomain.CycleSummaryResponse{Cycles: make([]dashboarddomain.CycleSummary, 0, len(rows))}
	for _, r := range rows {
		response.Cycles = append(response.Cycles, dashboarddomain.CycleSummary{
			CycleID:      r.ID.String(),
			Period:       fmt.Sprintf("%04d-%02d", r.Year, r.Month),
			TotalBilled:  r.TotalBilled.StringFixed(2),
			InvoiceCount: r.InvoiceCount,
			Status:       r.Status,
		})
	}
	return response, nil
}

func (s *Service) ListActivity(ctx context.Context, ispID snowflake.ID, limit int) (dashboarddomain.ActivityResponse, error) {
	if ispID == 0 {
		return dashboarddomain.ActivityResponse{}, dashboarddomain.ErrInvalidISP
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	type row struct {
		EventType string
		CreatedAt time.Time
	}
	var rows []row
	err := s.db.WithContext(ctx).Raw(
		`SELECT event_type, created_at FROM isp_events
		 WHERE isp_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		ispID, limit,
	).Scan(&rows).Error
	if err != nil {
		return dashboarddomain.ActivityResponse{}, err
	}

	response := dashboarddomain.ActivityResponse{Activity: make([]dashboarddomain.Activity, 0, len(rows))}
	for _, r := range rows {
		response.Activity = append(response.Activity, dashboarddomain.Activity{
			Message:    activityMessage(r.EventType),
			OccurredAt: r.CreatedAt,
		})
	}
	return response, nil
}

func activityMessage(eventType string) string {
	switch eventType {
	case "invoice.created":
		return "Factura emitida"
	case "invoice.paid":
		return "Factura pagada"
	case "invoice.voided":
		return "Factura anulada"
	case "receipt.issued":
		return "Recibo registrado"
	case "client.created":
		return "Cliente registrado"
	case "billing_cycle.closed":
		return "Ciclo de facturación cerrado"
	case "permission.updated":
		return "Permiso actualizado"
	case "permission.sync_failed":
		return "Sincronización de permiso fallida"
	default:
		return eventType
	}
}
