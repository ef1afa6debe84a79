package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/authorization"
)

// ListBillingCycles returns the ISP's cycles, newest first.
func (s *Server) ListBillingCycles(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectCycle, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	cycles, err := s.cycleSvc.List(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cycles})
}

// CloseBillingCycle closes a cycle ahead of the scheduler.
func (s *Server) CloseBillingCycle(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectCycle, authorization.ActionClose); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	cycleID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	cycle, err := s.cycleSvc.Close(c.Request.Context(), ispID, cycleID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cycle})
}
