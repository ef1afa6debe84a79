package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/weperezh01/isp-core/internal/authorization"
	routerdomain "github.com/weperezh01/isp-core/internal/router/domain"
)

// @Summary      Create Router
// @Tags         routers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body routerdomain.UpsertRouterRequest true "Create Router Request"
// @Success      200  {object}  routerdomain.Router
// @Router       /routers [post]
func (s *Server) CreateRouter(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectRouter, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	var req routerdomain.UpsertRouterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	router, err := s.routerSvc.Create(c.Request.Context(), ispID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": router})
}

// @Summary      List Routers
// @Tags         routers
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Substring filter"
// @Success      200  {object}  []routerdomain.Router
// @Router       /routers [get]
func (s *Server) ListRouters(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectRouter, authorization.ActionRead); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	routers, err := s.routerSvc.List(c.Request.Context(), ispID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := filteredJSON(c, routers, routerSearchFields)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// SetRouterStatus records the operational state of a router.
func (s *Server) SetRouterStatus(c *gin.Context) {
	if err := s.authorize(c, authorization.ObjectRouter, authorization.ActionWrite); err != nil {
		AbortWithError(c, err)
		return
	}
	ispID, _ := s.ispIDFromRequest(c)

	routerID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := routerdomain.RouterStatus(strings.TrimSpace(req.Status))
	if err := s.routerSvc.SetStatus(c.Request.Context(), ispID, routerID, status); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
