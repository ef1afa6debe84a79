// Package domain exposes the back-office overview screen data.
package domain

import "time"

// Overview is the landing screen summary for one ISP.
type Overview struct {
	Clients         int64  `json:"clientes"`
	ActiveClients   int64  `json:"clientes_activos"`
	Connections     int64  `json:"conexiones"`
	Routers         int64  `json:"routers"`
	PendingInvoices int64  `json:"facturas_pendientes"`
	PendingAmount   string `json:"monto_pendiente"`
}

// CycleSummary captures revenue and invoicing stats for a cycle.
type CycleSummary struct {
	CycleID      string `json:"id_ciclo"`
	Period       string `json:"periodo"`
	TotalBilled  string `json:"total_facturado"`
	InvoiceCount int64  `json:"cantidad_facturas"`
	Status       string `json:"estado"`
}

// CycleSummaryResponse is the API response for billing cycles.
type CycleSummaryResponse struct {
	Cycles []CycleSummary `json:"ciclos"`
}

// Activity represents a human-readable recent event.
type Activity struct {
	Message    string    `json:"mensaje"`
	OccurredAt time.Time `json:"fecha"`
}

// ActivityResponse is the API response for recent activity.
type ActivityResponse struct {
	Activity []Activity `json:"actividad"`
}
