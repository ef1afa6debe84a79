package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/authorization"
	receiptdomain "github.com/weperezh01/isp-core/internal/receipt/domain"
)

// @Summary      Issue Receipt
// @Description  Apply a payment to an invoice; the invoice settles once the
// @Description  receipts cover its total
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body receiptdomain.IssueReceiptRequest true "Issue Receipt Request"
// @Success      200  {object}  receiptdomain.Receipt
// @Router       /receipts [post]
func (s *Server) IssueReceipt(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectReceipt, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	var req receiptdomain.IssueReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	receipt, err := s.receiptSvc.Issue(c.Request.Context(), ispID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

// @Summary      List Receipts
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id_factura query string true "Invoice ID"
// @Param        q query string false "Substring filter"
// @Success      200  {object}  []receiptdomain.Receipt
// @Router       /receipts [get]
func (s *Server) ListReceipts(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectReceipt, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	invoiceID, err := parseIDQuery(c, "id_factura")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if invoiceID == 0 {
		AbortWithError(c, newValidationError("id_factura", "missing_id", "id_factura is required"))
		return
	}

	receipts, err := s.receiptSvc.ListByInvoice(c.Request.Context(), ispID, invoiceID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := filteredJSON(c, receipts, receiptSearchFields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}
