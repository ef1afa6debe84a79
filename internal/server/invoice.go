package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/weperezh01/isp-core/internal/audit/domain"
	auditservice "github.com/weperezh01/isp-core/internal/audit/service"
	"github.com/weperezh01/isp-core/internal/authorization"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
)

// @Summary      Emit Invoice
// @Description  Emit an invoice with its line items; totals and the NCF are
// @Description  computed server side
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body invoicedomain.CreateInvoiceRequest true "Create Invoice Request"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices [post]
func (s *Server) CreateInvoice(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionEmit); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), ispID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ISPID:      ispID,
			Action:     auditdomain.ActionInvoiceEmit,
			TargetType: "invoice",
			TargetID:   invoice.ID.String(),
			Metadata: map[string]any{
				"ncf":   invoice.NCF,
				"total": invoice.Total.StringFixed(2),
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice, "id_factura": invoice.ID.String()})
}

type attachArticlesRequest struct {
	Articles []invoicedomain.ArticleInput `json:"articulos"`
}

// @Summary      Attach Articles
// @Description  Append line items to a pending invoice; totals are recomputed
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Param        request body attachArticlesRequest true "Articles"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id}/articles [post]
func (s *Server) AttachArticles(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionEmit); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req attachArticlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.AttachArticles(c.Request.Context(), ispID, invoiceID, req.Articles)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// @Summary      List Invoices
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Substring filter"
// @Param        id_cliente query string false "Filter by client"
// @Param        id_ciclo query string false "Filter by billing cycle"
// @Param        estado query string false "Filter by status"
// @Success      200  {object}  []invoicedomain.Invoice
// @Router       /invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	clientID, err := parseIDQuery(c, "id_cliente")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	cycleID, err := parseIDQuery(c, "id_ciclo")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), ispID, invoicedomain.ListInvoiceRequest{
		ClientID: clientID,
		CycleID:  cycleID,
		Status:   invoicedomain.InvoiceStatus(strings.TrimSpace(c.Query("estado"))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := filteredJSON(c, invoices, invoiceSearchFields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// @Summary      Get Invoice
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Invoice ID"
// @Success      200  {object}  invoicedomain.Invoice
// @Router       /invoices/{id} [get]
func (s *Server) GetInvoice(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.GetByID(c.Request.Context(), ispID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// MarkInvoicePaid settles a pending invoice directly, without a receipt.
func (s *Server) MarkInvoicePaid(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoice, err := s.invoiceSvc.MarkPaid(c.Request.Context(), ispID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

type voidInvoiceRequest struct {
	Reason string `json:"motivo"`
}

// VoidInvoice annuls an invoice, recording the reason.
func (s *Server) VoidInvoice(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionVoid); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req voidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.Void(c.Request.Context(), ispID, invoiceID, strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		s.auditSvc.Record(c.Request.Context(), auditservice.Entry{
			ISPID:      ispID,
			Action:     auditdomain.ActionInvoiceVoid,
			TargetType: "invoice",
			TargetID:   invoice.ID.String(),
			Metadata:   map[string]any{"motivo": invoice.VoidReason},
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

// RenderInvoice returns the printable HTML document for an invoice.
func (s *Server) RenderInvoice(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectInvoice, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.invoiceSvc.RenderHTML(c.Request.Context(), ispID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
