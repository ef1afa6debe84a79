package authorization

import "context"

// Objects an actor can be checked against.
const (
	ObjectInvoice    = "invoice"
	ObjectClient     = "client"
	ObjectConnection = "connection"
	ObjectRouter     = "router"
	ObjectPermission = "permission"
	ObjectCycle      = "billing_cycle"
	ObjectReceipt    = "receipt"
	ObjectAccounting = "accounting"
	ObjectAudit      = "audit"
)

// Actions per object.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionEmit   = "emit"
	ActionVoid   = "void"
	ActionToggle = "toggle"
	ActionClose  = "close"
)

// Service answers whether an actor may perform an action on an object inside
// an ISP. Actors are "user:<id>" or "system".
type Service interface {
	Authorize(ctx context.Context, actor string, ispID string, object string, action string) error
}
