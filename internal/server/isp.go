package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
)

type createISPRequest struct {
	Name    string `json:"nombre"`
	RNC     string `json:"rnc"`
	Address string `json:"direccion"`
	Phone   string `json:"telefono"`
}

// CreateISP registers a tenant owned by the session user.
func (s *Server) CreateISP(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createISPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isp, err := s.ispSvc.Create(c.Request.Context(), userID, ispdomain.CreateISPRequest{
		Name:    strings.TrimSpace(req.Name),
		RNC:     strings.TrimSpace(req.RNC),
		Address: strings.TrimSpace(req.Address),
		Phone:   strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": isp})
}

// ListISPs returns the tenants the session user belongs to.
func (s *Server) ListISPs(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	isps, err := s.ispSvc.ListByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": isps})
}
