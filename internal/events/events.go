package events

// Event types stored in the outbox and fanned out by the dispatcher.
const (
	EventInvoiceCreated       = "invoice.created"
	EventInvoicePaid          = "invoice.paid"
	EventInvoiceVoided        = "invoice.voided"
	EventClientCreated        = "client.created"
	EventCycleClosed          = "billing_cycle.closed"
	EventPermissionUpdated    = "permission.updated"
	EventPermissionSyncFailed = "permission.sync_failed"
	EventReceiptIssued        = "receipt.issued"
)

// InvoicePayload captures the minimal data consumers need about an invoice.
type InvoicePayload struct {
	InvoiceID string `json:"invoice_id"`
	ClientID  string `json:"client_id"`
	CycleID   string `json:"cycle_id"`
	NCF       string `json:"ncf,omitempty"`
	Total     string `json:"total,omitempty"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p InvoicePayload) ToMap() map[string]any {
	payload := map[string]any{
		"invoice_id": p.InvoiceID,
		"client_id":  p.ClientID,
		"cycle_id":   p.CycleID,
	}
	if p.NCF != "" {
		payload["ncf"] = p.NCF
	}
	if p.Total != "" {
		payload["total"] = p.Total
	}
	return payload
}

// PermissionPayload captures a permission toggle for downstream sync.
type PermissionPayload struct {
	UserID          string `json:"user_id"`
	PermissionID    int64  `json:"permission_id"`
	SubPermissionID int64  `json:"sub_permission_id"`
	Enabled         bool   `json:"enabled"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p PermissionPayload) ToMap() map[string]any {
	return map[string]any{
		"user_id":           p.UserID,
		"permission_id":     p.PermissionID,
		"sub_permission_id": p.SubPermissionID,
		"enabled":           p.Enabled,
	}
}
