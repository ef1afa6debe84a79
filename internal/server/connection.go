package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/authorization"
	connectiondomain "github.com/weperezh01/isp-core/internal/connection/domain"
)

// @Summary      Create Connection
// @Tags         connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body connectiondomain.UpsertConnectionRequest true "Create Connection Request"
// @Success      200  {object}  connectiondomain.Connection
// @Router       /connections [post]
func (s *Server) CreateConnection(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectConnection, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	var req connectiondomain.UpsertConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	connection, err := s.connectionSvc.Create(c.Request.Context(), ispID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": connection})
}

// @Summary      List Connections
// @Tags         connections
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Substring filter"
// @Param        id_cliente query string false "Filter by client"
// @Success      200  {object}  []connectiondomain.Connection
// @Router       /connections [get]
func (s *Server) ListConnections(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectConnection, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)
	ctx := c.Request.Context()

	var (
		connections []connectiondomain.Connection
		err         error
	)
	if raw := strings.TrimSpace(c.Query("id_cliente")); raw != "" {
		clientID, parseErr := parseIDQuery(c, "id_cliente")
		if parseErr != nil {
			AbortWithError(c, parseErr)
			return
		}
		connections, err = s.connectionSvc.ListByClient(ctx, ispID, clientID)
	} else {
		connections, err = s.connectionSvc.List(ctx, ispID)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := filteredJSON(c, connections, connectionSearchFields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// SetConnectionStatus flips a connection between activa/suspendida/cortada.
func (s *Server) SetConnectionStatus(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectConnection, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	connectionID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := connectiondomain.ConnectionStatus(strings.TrimSpace(req.Status))
	if err := s.connectionSvc.SetStatus(c.Request.Context(), ispID, connectionID, status); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
