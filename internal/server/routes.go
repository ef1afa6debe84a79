package server

import "github.com/gin-gonic/gin"

// registerRoutes lays out the API. The /api tree is the canonical REST
// surface; the Spanish aliases keep the paths the mobile client calls.
func (s *Server) registerRoutes(engine *gin.Engine) {
	api := engine.Group("/api")

	api.POST("/auth/register", s.Register)
	api.POST("/auth/login", s.LoginRateLimited(), s.Login)

	authed := api.Group("", s.SessionRequired())
	authed.POST("/auth/logout", s.Logout)
	authed.GET("/me", s.Me)
	authed.POST("/auth/select-isp", s.SelectISP)
	authed.PUT("/me/view-mode", s.UpdateViewMode)

	authed.POST("/isps", s.CreateISP)
	authed.GET("/isps", s.ListISPs)

	tenant := authed.Group("", s.ISPRequired())

	tenant.GET("/users", s.ListUsers)
	tenant.GET("/permissions", s.PermissionCatalog)
	tenant.GET("/users/:id/permissions", s.ListUserPermissions)
	tenant.POST("/users/:id/permissions", s.Idempotent(), s.TogglePermission)

	tenant.POST("/clients", s.Idempotent(), s.CreateClient)
	tenant.GET("/clients", s.ListClients)
	tenant.GET("/clients/:id", s.GetClient)
	tenant.PUT("/clients/:id", s.UpdateClient)
	tenant.PUT("/clients/:id/status", s.SetClientStatus)

	tenant.POST("/routers", s.CreateRouter)
	tenant.GET("/routers", s.ListRouters)
	tenant.PUT("/routers/:id/status", s.SetRouterStatus)

	tenant.POST("/connections", s.Idempotent(), s.CreateConnection)
	tenant.GET("/connections", s.ListConnections)
	tenant.PUT("/connections/:id/status", s.SetConnectionStatus)

	tenant.GET("/billing-cycles", s.ListBillingCycles)
	tenant.POST("/billing-cycles/:id/close", s.CloseBillingCycle)

	tenant.POST("/invoices", s.Idempotent(), s.CreateInvoice)
	tenant.GET("/invoices", s.ListInvoices)
	tenant.GET("/invoices/:id", s.GetInvoice)
	tenant.POST("/invoices/:id/articles", s.Idempotent(), s.AttachArticles)
	tenant.POST("/invoices/:id/pay", s.MarkInvoicePaid)
	tenant.POST("/invoices/:id/void", s.VoidInvoice)
	tenant.GET("/invoices/:id/html", s.RenderInvoice)

	tenant.POST("/receipts", s.Idempotent(), s.IssueReceipt)
	tenant.GET("/receipts", s.ListReceipts)

	tenant.GET("/audit-logs", s.ListAuditLogs)

	tenant.GET("/dashboard/overview", s.DashboardOverview)
	tenant.GET("/dashboard/cycles", s.DashboardCycles)
	tenant.GET("/dashboard/activity", s.DashboardActivity)

	tenant.POST("/accounting/subscribe", s.SubscribeAccounting)
	tenant.POST("/accounting/unsubscribe", s.UnsubscribeAccounting)
	tenant.GET("/accounting/status", s.AccountingStatus)
	tenant.GET("/accounting/entries", s.ListAccountingEntries)

	// Aliases matching the original mobile contract.
	tenant.POST("/crear-factura", s.Idempotent(), s.CreateInvoice)
	tenant.POST("/facturas/:id/agregar-articulos", s.Idempotent(), s.AttachArticles)
	tenant.GET("/facturas", s.ListInvoices)
	tenant.GET("/clientes", s.ListClients)
	tenant.GET("/conexiones", s.ListConnections)
	tenant.GET("/recibos", s.ListReceipts)
	tenant.POST("/usuarios/:id/actualizar-permiso", s.Idempotent(), s.TogglePermission)

	if !s.cfg.IsProduction() {
		api.POST("/test/cleanup", s.TestCleanup)
	}
}
