package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/authorization"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
)

// @Summary      Create Client
// @Description  Register a subscriber in the selected ISP
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body clientdomain.UpsertClientRequest true "Create Client Request"
// @Success      200  {object}  clientdomain.Client
// @Router       /clients [post]
func (s *Server) CreateClient(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectClient, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	var req clientdomain.UpsertClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	client, err := s.clientSvc.Create(c.Request.Context(), ispID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": client})
}

// @Summary      List Clients
// @Description  List subscribers, optionally narrowed by ?q=
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Substring filter"
// @Success      200  {object}  []clientdomain.Client
// @Router       /clients [get]
func (s *Server) ListClients(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectClient, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	clients, err := s.clientSvc.List(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := filteredJSON(c, clients, clientSearchFields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// @Summary      Get Client
// @Tags         clients
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Client ID"
// @Success      200  {object}  clientdomain.Client
// @Router       /clients/{id} [get]
func (s *Server) GetClient(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectClient, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	clientID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	client, err := s.clientSvc.GetByID(c.Request.Context(), ispID, clientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": client})
}

// @Summary      Update Client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Client ID"
// @Param        request body clientdomain.UpsertClientRequest true "Update Client Request"
// @Success      200  {object}  clientdomain.Client
// @Router       /clients/{id} [put]
func (s *Server) UpdateClient(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectClient, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	clientID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req clientdomain.UpsertClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	client, err := s.clientSvc.Update(c.Request.Context(), ispID, clientID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": client})
}

type setStatusRequest struct {
	Status string `json:"estado"`
}

// SetClientStatus flips a subscriber between activo/suspendido/retirado.
func (s *Server) SetClientStatus(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectClient, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	clientID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := clientdomain.ClientStatus(strings.TrimSpace(req.Status))
	if err := s.clientSvc.SetStatus(c.Request.Context(), ispID, clientID, status); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseIDParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, newValidationError(name, "missing_id", name+" is required")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_id", "invalid "+name)
	}
	return id, nil
}

func parseIDQuery(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_id", "invalid "+name)
	}
	return id, nil
}
