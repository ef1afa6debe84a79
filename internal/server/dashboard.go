package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DashboardOverview returns the headline counters for the admin home screen.
func (s *Server) DashboardOverview(c *gin.Context) {
	ispID, ok := s.ispIDFromRequest(c)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	overview, err := s.dashboardSvc.Overview(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}

// DashboardCycles summarizes invoicing per billing cycle.
func (s *Server) DashboardCycles(c *gin.Context) {
	ispID, ok := s.ispIDFromRequest(c)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	resp, err := s.dashboardSvc.ListCycleSummaries(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ciclos": resp.Cycles})
}

// DashboardActivity lists recent domain events as human-readable lines.
func (s *Server) DashboardActivity(c *gin.Context) {
	ispID, ok := s.ispIDFromRequest(c)
	if !ok {
		AbortWithError(c, ErrForbidden)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limite"))
	resp, err := s.dashboardSvc.ListActivity(c.Request.Context(), ispID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"actividad": resp.Activity})
}
