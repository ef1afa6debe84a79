package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/authorization"
)

// SubscribeAccounting activates the accounting add-on for the ISP.
func (s *Server) SubscribeAccounting(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectAccounting, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	if err := s.accountingSvc.Subscribe(c.Request.Context(), ispID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "activo": true})
}

// UnsubscribeAccounting deactivates the add-on. Existing entries stay.
func (s *Server) UnsubscribeAccounting(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectAccounting, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	if err := s.accountingSvc.Unsubscribe(c.Request.Context(), ispID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "activo": false})
}

// AccountingStatus reports whether the add-on is active.
func (s *Server) AccountingStatus(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectAccounting, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	active, err := s.accountingSvc.IsActive(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activo": active})
}

// ListAccountingEntries returns recent ledger entries.
func (s *Server) ListAccountingEntries(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectAccounting, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	limit, _ := strconv.Atoi(c.Query("limite"))
	entries, err := s.accountingSvc.ListEntries(c.Request.Context(), ispID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
